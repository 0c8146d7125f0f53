package internal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-gis/formkit"
)

func openLocalLayer(t *testing.T) *LocalLayerStore {
	t.Helper()
	store, err := NewLocalLayerStore(formkit.LocalLayerConfig{Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLocalLayerStoreDisabled(t *testing.T) {
	_, err := NewLocalLayerStore(formkit.LocalLayerConfig{})
	assert.Error(t, err)
}

func TestLocalLayerOpenFeature(t *testing.T) {
	store := openLocalLayer(t)
	ctx := context.Background()

	_, err := store.DB().Exec(`CREATE TABLE trees (
		id VARCHAR, name VARCHAR, height DOUBLE, geom_lat DOUBLE, geom_lon DOUBLE)`)
	require.NoError(t, err)

	id := uuid.Must(uuid.NewV7())
	_, err = store.DB().Exec(`INSERT INTO trees VALUES (?, ?, ?, ?, ?)`,
		id.String(), "oak", 4.5, 55.75, 37.61)
	require.NoError(t, err)

	cursor, err := store.OpenFeature(ctx, "trees", id)
	require.NoError(t, err)
	defer cursor.Close()

	assert.Equal(t, id, cursor.FeatureID())
	assert.Equal(t, "oak", cursor.GetString(cursor.ColumnIndex("name")))
	assert.Equal(t, 4.5, cursor.GetDouble(cursor.ColumnIndex("height")))

	point, has := cursor.Geometry()
	require.True(t, has)
	assert.Equal(t, 55.75, point.Lat)

	_, err = store.OpenFeature(ctx, "trees", uuid.Must(uuid.NewV7()))
	require.Error(t, err)
	assert.True(t, formkit.IsNotFoundError(err))
}

func TestLocalLayerLookup(t *testing.T) {
	store := openLocalLayer(t)
	ctx := context.Background()

	_, err := store.DB().Exec(`CREATE TABLE species_list (
		name VARCHAR, alias VARCHAR, alias2 VARCHAR, is_default BOOLEAN)`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO species_list VALUES
		('oak', 'Oak', 'Quercus', false),
		('pine', 'Pine', NULL, true)`)
	require.NoError(t, err)

	items, err := store.Lookup(ctx, "species_list")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "oak", items[0].Name)
	assert.Equal(t, "Quercus", items[0].Alias2)
	assert.False(t, items[0].Default)
	assert.Equal(t, "pine", items[1].Name)
	assert.True(t, items[1].Default)

	_, err = store.Lookup(ctx, "no_such_table")
	assert.Error(t, err)
}
