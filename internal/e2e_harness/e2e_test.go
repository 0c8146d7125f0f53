package e2e_harness

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-gis/formkit"
	"github.com/meridian-gis/formkit/factory"
	"github.com/meridian-gis/formkit/internal"
)

func mustSet(t *testing.T, session formkit.FormSession, field string, value any) {
	t.Helper()
	control, ok := session.Control(field)
	require.True(t, ok, "control %s not bound", field)
	require.NoError(t, control.SetValue(value))
}

func TestE2EFormLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	if _, err := h.StartPostgres(ctx); err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer h.StopPostgres(ctx)

	ids, err := SeedPostgres(ctx, h.PGDB)
	require.NoError(t, err)

	fieldDir := t.TempDir()
	require.NoError(t, WriteFieldFiles(fieldDir))

	cfg := formkit.DefaultConfig()
	cfg.Form.FieldDirectory = fieldDir
	cfg.Preferences.Path = filepath.Join(t.TempDir(), "prefs.db")

	engine, err := factory.NewFormEngineWithConfig(ctx, cfg, h.PGPool)
	require.NoError(t, err)

	// Edit a seeded feature and persist one change.
	session, err := engine.NewSession(ctx, &formkit.SessionRequest{
		Layer:     "trees",
		FeatureID: ids[0],
		SpecData:  TreesFormSpec(),
	})
	require.NoError(t, err)
	require.Equal(t, formkit.SessionStateReady, session.State())

	name, ok := session.Control("name")
	require.True(t, ok)
	require.Equal(t, "Alder", name.Value())

	edits, err := session.HasEdits(ctx)
	require.NoError(t, err)
	require.False(t, edits)

	mustSet(t, session, "name", "Alder (north bank)")
	edits, err = session.HasEdits(ctx)
	require.NoError(t, err)
	require.True(t, edits)

	saved, err := session.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, ids[0], saved)
	require.NoError(t, session.Close())

	var stored string
	require.NoError(t, h.PGDB.QueryRowContext(ctx,
		"SELECT name FROM trees WHERE id = $1", ids[0]).Scan(&stored))
	require.Equal(t, "Alder (north bank)", stored)

	// Create a new feature with explicit geometry.
	create, err := engine.NewSession(ctx, &formkit.SessionRequest{
		Layer:    "trees",
		SpecData: TreesFormSpec(),
		Geometry: &formkit.GeoPoint{Lat: 48.8600, Lon: 2.3500},
	})
	require.NoError(t, err)

	mustSet(t, create, "name", "Dogwood")
	mustSet(t, create, "species", "cornus")
	mustSet(t, create, "height", "4.5")
	mustSet(t, create, "count", "1")

	id, err := create.Save(ctx)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	require.NoError(t, create.Close())

	var height, lat, lon float64
	var surveyed int64
	require.NoError(t, h.PGDB.QueryRowContext(ctx,
		"SELECT height, surveyed, geom_lat, geom_lon FROM trees WHERE id = $1", id).
		Scan(&height, &surveyed, &lat, &lon))
	require.InDelta(t, 4.5, height, 1e-9)
	require.NotZero(t, surveyed)
	require.InDelta(t, 48.8600, lat, 1e-9)
	require.InDelta(t, 2.3500, lon, 1e-9)

	// Reopen the created feature and check the stored values round-trip.
	reopen, err := engine.NewSession(ctx, &formkit.SessionRequest{
		Layer:     "trees",
		FeatureID: id,
		SpecData:  TreesFormSpec(),
	})
	require.NoError(t, err)
	species, ok := reopen.Control("species")
	require.True(t, ok)
	require.Equal(t, "cornus", species.Value())
	count, ok := reopen.Control("count")
	require.True(t, ok)
	require.Equal(t, int64(1), count.Value())
	require.NoError(t, reopen.Close())
}

func TestE2EAttachmentStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	if _, err := h.StartS3(ctx); err != nil {
		t.Fatalf("start rustfs: %v", err)
	}
	defer h.StopS3(ctx)

	const bucket = "formkit-attachments"
	require.NoError(t, EnsureBucket(ctx, h.S3Endpoint, "minio", "minio", bucket))

	store, err := internal.NewS3AttachmentStore(ctx, formkit.StorageConfig{
		Enabled:          true,
		Bucket:           bucket,
		Prefix:           "e2e",
		Region:           "us-east-1",
		Endpoint:         h.S3Endpoint,
		AccessKey:        "minio",
		SecretKey:        "minio",
		ForcePathStyle:   true,
		UploadPartSizeMB: 8,
	})
	require.NoError(t, err)

	feature := uuid.Must(uuid.NewV7())
	payload := []byte("jpeg bytes")

	require.NoError(t, store.Put(ctx, "trees", feature, "photo_1.jpg", "image/jpeg", bytes.NewReader(payload)))

	body, err := store.Open(ctx, "trees", feature, "photo_1.jpg")
	require.NoError(t, err)
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, payload, got)

	names, err := store.List(ctx, "trees", feature)
	require.NoError(t, err)
	require.Equal(t, []string{"photo_1.jpg"}, names)

	require.NoError(t, store.Delete(ctx, "trees", feature, "photo_1.jpg"))

	_, err = store.Open(ctx, "trees", feature, "photo_1.jpg")
	require.Error(t, err)
	require.True(t, formkit.IsNotFoundError(err))
}
