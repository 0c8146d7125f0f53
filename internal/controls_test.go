package internal

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-gis/formkit"
)

func speciesChoices() []any {
	return []any{
		map[string]any{"name": "oak", "alias": "Oak", "alias2": "Quercus"},
		map[string]any{"name": "pine", "alias": "Pine", "default": true},
		map[string]any{"name": "elm", "alias": "Elm"},
	}
}

func TestTextControlLengthAndFigures(t *testing.T) {
	bind := testBind(testFields())
	bind.MaxStringLen = 4

	ctrl := &textControl{}
	element := el(formkit.ElementTextEdit, map[string]any{
		"field_name":   "name",
		"only_figures": true,
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	assert.Error(t, ctrl.SetValue("12345"), "over the length limit")
	assert.Error(t, ctrl.SetValue("oak"), "not numeric")
	require.NoError(t, ctrl.SetValue("12.5"))
	assert.Equal(t, "12.5", ctrl.Value())
}

func TestTextControlParsesTypedFields(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &textControl{}
	element := el(formkit.ElementTextEdit, map[string]any{"field_name": "count"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	require.NoError(t, ctrl.SetValue("17"))
	assert.Equal(t, int64(17), ctrl.Value())
	assert.Error(t, ctrl.SetValue("seventeen"))
	assert.Equal(t, int64(17), ctrl.Value(), "failed set leaves the value alone")
}

func TestTextControlTypedDefaultParsed(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &textControl{}
	element := el(formkit.ElementTextEdit, map[string]any{
		"field_name": "height",
		"text":       "2.5",
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, 2.5, ctrl.Value())
}

func TestCheckboxEncodesPerFieldType(t *testing.T) {
	bind := testBind(testFields())
	ctx := context.Background()

	intBox := &checkboxControl{}
	element := el(formkit.ElementCheckbox, map[string]any{"field_name": "healthy"})
	require.NoError(t, intBox.Init(ctx, &element, bind))
	assert.Equal(t, int64(0), intBox.Value())
	require.NoError(t, intBox.SetValue(true))
	assert.Equal(t, int64(1), intBox.Value())
	assert.True(t, intBox.Checked())

	strBox := &checkboxControl{}
	element = el(formkit.ElementCheckbox, map[string]any{
		"field_name": "name",
		"init_value": true,
	})
	require.NoError(t, strBox.Init(ctx, &element, bind))
	assert.Equal(t, "true", strBox.Value())
	require.NoError(t, strBox.SetValue(false))
	assert.Equal(t, "false", strBox.Value())
}

func TestRadioGroupMatchesByAlias(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &radioGroupControl{}
	element := el(formkit.ElementRadioGroup, map[string]any{
		"field_name": "species",
		"values":     speciesChoices(),
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	// pine is the declared default.
	assert.Equal(t, "pine", ctrl.Value())

	require.NoError(t, ctrl.SetValue("Quercus"))
	assert.Equal(t, "oak", ctrl.Value(), "aliases resolve to the stored name")

	assert.Error(t, ctrl.SetValue("baobab"))
	assert.Equal(t, "oak", ctrl.Value())
}

func TestComboboxAllowAddedValues(t *testing.T) {
	bind := testBind(testFields())
	ctx := context.Background()

	strict := &comboboxControl{}
	element := el(formkit.ElementCombobox, map[string]any{
		"field_name": "species",
		"values":     speciesChoices(),
	})
	require.NoError(t, strict.Init(ctx, &element, bind))
	assert.Error(t, strict.SetValue("baobab"))

	open := &comboboxControl{}
	element = el(formkit.ElementCombobox, map[string]any{
		"field_name":          "species",
		"values":              speciesChoices(),
		"allow_adding_values": true,
	})
	require.NoError(t, open.Init(ctx, &element, bind))
	require.NoError(t, open.SetValue("baobab"))
	assert.Equal(t, "baobab", open.Value())
}

func TestSplitComboboxSecondSpinner(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &comboboxControl{split: true}
	element := el(formkit.ElementSplitCombobox, map[string]any{
		"field_name": "species",
		"values":     speciesChoices(),
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	layout := formkit.NewLayout()
	ctrl.Attach(layout)
	widgets := layout.Widgets()
	require.Len(t, widgets, 2)

	// Both spinners drive the same field, the second in the other language.
	assert.Equal(t, formkit.WidgetSpinner, widgets[0].Kind)
	assert.Equal(t, formkit.WidgetSpinner, widgets[1].Kind)
	assert.Equal(t, "species", widgets[0].Field)
	assert.Equal(t, "species", widgets[1].Field)
	assert.Equal(t, []string{"Oak", "Pine", "Elm"}, widgets[0].Options)
	assert.Equal(t, []string{"Quercus", "Pine", "Elm"}, widgets[1].Options)
}

func TestChoiceControlsRequireOptions(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &comboboxControl{}
	element := el(formkit.ElementCombobox, map[string]any{"field_name": "species"})
	err := ctrl.Init(context.Background(), &element, bind)
	require.Error(t, err)
	assert.True(t, formkit.IsElementBindError(err))
}

func TestChoicesFromLookupTable(t *testing.T) {
	bind := testBind(testFields())
	bind.Lookup = &memLookup{tables: map[string][]formkit.ChoiceItem{
		"species_list": {
			{Name: "oak"},
			{Name: "pine", Default: true},
		},
	}}

	ctrl := &comboboxControl{}
	element := el(formkit.ElementCombobox, map[string]any{
		"field_name":   "species",
		"lookup_table": "species_list",
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, "pine", ctrl.Value())

	missing := &comboboxControl{}
	element = el(formkit.ElementCombobox, map[string]any{
		"field_name":   "species",
		"lookup_table": "no_such_table",
	})
	err := missing.Init(context.Background(), &element, bind)
	require.Error(t, err)
	assert.True(t, formkit.IsElementBindError(err))
}

func TestAutoTextSuggestionsOptional(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &autoTextControl{}
	element := el(formkit.ElementAutoComplete, map[string]any{"field_name": "species"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	// Free text is always accepted, with or without a suggestion list.
	require.NoError(t, ctrl.SetValue("anything"))
	assert.Equal(t, "anything", ctrl.Value())
}

func TestAutoTextRejectsUnlistedValue(t *testing.T) {
	bind := testBind(testFields())
	ctx := context.Background()

	strict := &autoTextControl{}
	element := el(formkit.ElementAutoComplete, map[string]any{
		"field_name": "species",
		"values":     speciesChoices(),
	})
	require.NoError(t, strict.Init(ctx, &element, bind))

	// Typing is never blocked, but text outside the list yields no value.
	require.NoError(t, strict.SetValue("baobab"))
	assert.Nil(t, strict.Value())
	require.NoError(t, strict.SetValue("oak"))
	assert.Equal(t, "oak", strict.Value())

	open := &autoTextControl{}
	element = el(formkit.ElementAutoComplete, map[string]any{
		"field_name":          "species",
		"values":              speciesChoices(),
		"allow_adding_values": true,
	})
	require.NoError(t, open.Init(ctx, &element, bind))
	require.NoError(t, open.SetValue("baobab"))
	assert.Equal(t, "baobab", open.Value())
}

func nestedSpeciesChoices() []any {
	return []any{
		map[string]any{"name": "oak", "values": []any{
			map[string]any{"name": "red"},
			map[string]any{"name": "white"},
		}},
		map[string]any{"name": "pine", "values": []any{
			map[string]any{"name": "red"},
			map[string]any{"name": "black", "default": true},
		}},
		map[string]any{"name": "willow"},
	}
}

func TestDoubleComboboxCarriesSubValue(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &doubleComboboxControl{}
	element := el(formkit.ElementDoubleCombobox, map[string]any{
		"field_level1": "species",
		"field_level2": "subspecies",
		"values":       nestedSpeciesChoices(),
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	require.NoError(t, ctrl.SetValue(formkit.DoubleComboValue{Value: "oak", SubValue: "red"}))

	// The sub value survives a top switch when the new list carries it.
	require.NoError(t, ctrl.SetValue("pine"))
	combo := ctrl.Value().(formkit.DoubleComboValue)
	assert.Equal(t, "pine", combo.Value)
	assert.Equal(t, "red", combo.SubValue)

	// A list without the current sub value drops it entirely.
	require.NoError(t, ctrl.SetValue("willow"))
	combo = ctrl.Value().(formkit.DoubleComboValue)
	assert.Equal(t, "", combo.SubValue)

	// Coming back without a sub value picks up the list's default.
	require.NoError(t, ctrl.SetValue("pine"))
	combo = ctrl.Value().(formkit.DoubleComboValue)
	assert.Equal(t, "black", combo.SubValue)
}

func TestDoubleComboboxSubDefaultOnSwitch(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &doubleComboboxControl{}
	element := el(formkit.ElementDoubleCombobox, map[string]any{
		"field_level1": "species",
		"field_level2": "subspecies",
		"values":       nestedSpeciesChoices(),
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	require.NoError(t, ctrl.SetValue(formkit.DoubleComboValue{Value: "oak", SubValue: "white"}))

	// "white" is not a pine sub-option, so the declared default wins.
	require.NoError(t, ctrl.SetValue("pine"))
	combo := ctrl.Value().(formkit.DoubleComboValue)
	assert.Equal(t, "pine", combo.Value)
	assert.Equal(t, "black", combo.SubValue)
}

func TestDateTimeControlModes(t *testing.T) {
	bind := testBind(testFields())
	ctx := context.Background()

	ctrl := &dateTimeControl{}
	element := el(formkit.ElementDateTime, map[string]any{
		"field_name": "surveyed",
		"init_value": "2024-03-15 14:30:45",
	})
	require.NoError(t, ctrl.Init(ctx, &element, bind))
	assert.Equal(t, "2024-03-15 14:30:45", ctrl.Text())

	// Feeding the formatted output back is a no-op.
	before := ctrl.Value()
	require.NoError(t, ctrl.SetValue(ctrl.Text()))
	assert.Equal(t, before, ctrl.Value())

	require.NoError(t, ctrl.SetValue(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "2025-01-02 03:04:05", ctrl.Text())
}

func TestDateTimeControlDateTypeOverride(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &dateTimeControl{}
	element := el(formkit.ElementDateTime, map[string]any{
		"field_name": "surveyed",
		"date_type":  dateTypeDate,
		"init_value": "2024-03-15",
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, "2024-03-15", ctrl.Text())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), ctrl.Value())
}

func TestDateTimeControlDefaultsToNow(t *testing.T) {
	bind := testBind(testFields())

	ctrl := &dateTimeControl{}
	element := el(formkit.ElementDateTime, map[string]any{"field_name": "surveyed"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	epoch, ok := ctrl.Value().(int64)
	require.True(t, ok)
	assert.InDelta(t, time.Now().UnixMilli(), epoch, float64(5*time.Second/time.Millisecond))
}

func TestCounterControlSequence(t *testing.T) {
	store := newMemStore()
	store.nextSeq = 4

	bind := testBind(testFields())
	bind.Store = store
	bind.NewFeature = true

	ctrl := &counterControl{}
	element := el(formkit.ElementCounter, map[string]any{
		"field_name": "seq",
		"prefix":     "TR-",
		"suffix":     "/24",
		"init_value": 100,
		"increment":  10,
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	// init 100 plus three increments of 10.
	assert.Equal(t, "TR-130/24", ctrl.Value())
	assert.False(t, ctrl.Enabled())
	assert.Error(t, ctrl.SetValue("TR-999"))
}

func TestCounterControlNumericField(t *testing.T) {
	store := newMemStore()
	store.nextSeq = 2

	bind := testBind(testFields())
	bind.Store = store
	bind.NewFeature = true

	ctrl := &counterControl{}
	element := el(formkit.ElementCounter, map[string]any{"field_name": "count"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, int64(2), ctrl.Value())
}

func TestCounterControlPrefixFromList(t *testing.T) {
	store := newMemStore()
	bind := testBind(testFields())
	bind.Store = store
	bind.NewFeature = true
	bind.Lookup = &memLookup{tables: map[string][]formkit.ChoiceItem{
		"zones": {{Name: "N"}, {Name: "S", Default: true}},
	}}

	ctrl := &counterControl{}
	element := el(formkit.ElementCounter, map[string]any{
		"field_name":       "seq",
		"prefix_from_list": "zones",
	})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, "S1", ctrl.Value())
}

func TestCounterControlKeepsStoredValue(t *testing.T) {
	cursor := newMemCursor(uuid.Must(uuid.NewV7()), map[string]any{"seq": "TR-7"})
	bind := testBind(testFields())
	bind.Cursor = cursor

	ctrl := &counterControl{}
	element := el(formkit.ElementCounter, map[string]any{"field_name": "seq", "prefix": "TR-"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, "TR-7", ctrl.Value())
}

func TestDistanceControl(t *testing.T) {
	bind := testBind(testFields())
	bind.Location = formkit.FixedLocation{Lat: 0, Lon: 0}
	bind.Geometry = &formkit.GeoPoint{Lat: 0, Lon: 1}

	ctrl := &distanceControl{}
	element := el(formkit.ElementDistance, map[string]any{"field_name": "dist"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))

	// One degree of longitude on the equator is about 111 km.
	meters, ok := ctrl.Value().(float64)
	require.True(t, ok)
	assert.InDelta(t, 111195, meters, 100)
	assert.Error(t, ctrl.SetValue(5.0))
}

func TestDistanceControlRequiresFix(t *testing.T) {
	bind := testBind(testFields())
	bind.Geometry = &formkit.GeoPoint{Lat: 0, Lon: 1}

	ctrl := &distanceControl{}
	element := el(formkit.ElementDistance, map[string]any{"field_name": "dist"})
	err := ctrl.Init(context.Background(), &element, bind)
	require.Error(t, err)
	assert.True(t, formkit.IsElementBindError(err))
}

func TestDistanceControlNewFeatureWithoutGeometry(t *testing.T) {
	bind := testBind(testFields())
	bind.Location = formkit.FixedLocation{Lat: 0, Lon: 0}
	bind.NewFeature = true

	ctrl := &distanceControl{}
	element := el(formkit.ElementDistance, map[string]any{"field_name": "dist"})
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Nil(t, ctrl.Value())
}

func TestLabelAndSpaceControls(t *testing.T) {
	bind := testBind(testFields())
	bind.Translations = map[string]string{"Note": "Remarque"}

	label := &labelControl{}
	element := el(formkit.ElementTextLabel, map[string]any{"text": "Note"})
	require.NoError(t, label.Init(context.Background(), &element, bind))
	assert.Equal(t, "", label.FieldName())
	assert.Equal(t, "Remarque", label.Value())
	assert.Error(t, label.SetValue("x"))

	space := &spaceControl{}
	element = el(formkit.ElementSpace, nil)
	require.NoError(t, space.Init(context.Background(), &element, bind))
	assert.Nil(t, space.Value())
}

func TestSignatureStateRestore(t *testing.T) {
	bind := testBind(testFields())
	bind.Attachments = newMemAttachments()
	bind.NewFeature = true
	bind.State = formkit.InstanceState{stateKeySignature: []byte("drawn")}

	ctrl := &signatureControl{}
	element := el(formkit.ElementSignature, nil)
	require.NoError(t, ctrl.Init(context.Background(), &element, bind))
	assert.Equal(t, []byte("drawn"), ctrl.Value())

	// Clearing drops the pending blob.
	require.NoError(t, ctrl.SetValue(nil))
	assert.Nil(t, ctrl.Value())
}

func TestPhotoControlRemove(t *testing.T) {
	attachments := newMemAttachments()
	feature := uuid.Must(uuid.NewV7())
	ctx := context.Background()
	require.NoError(t, attachments.Put(ctx, "trees", feature, "photo_1.jpg", "image/jpeg", bytes.NewReader([]byte("old"))))
	require.NoError(t, attachments.Put(ctx, "trees", feature, "signature.png", "image/png", bytes.NewReader([]byte("sig"))))

	bind := testBind(testFields())
	bind.Attachments = attachments
	bind.FeatureID = feature

	ctrl := &photoControl{}
	element := el(formkit.ElementPhoto, map[string]any{"gallery_size": 5})
	require.NoError(t, ctrl.Init(ctx, &element, bind))

	// The signature never shows up in the gallery.
	assert.Equal(t, []string{"photo_1.jpg"}, ctrl.Value())

	require.NoError(t, ctrl.Remove("photo_1.jpg"))
	assert.Error(t, ctrl.Remove("photo_9.jpg"))

	require.NoError(t, ctrl.Flush(ctx, feature))
	_, present := attachments.objects[attKey("trees", feature, "photo_1.jpg")]
	assert.False(t, present)
	_, kept := attachments.objects[attKey("trees", feature, "signature.png")]
	assert.True(t, kept)
}
