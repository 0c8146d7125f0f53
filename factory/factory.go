package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-gis/formkit"
	"github.com/meridian-gis/formkit/internal"
)

// NewFormEngineWithConfig creates a FormEngine wired to the provided
// configuration and database pool. This is the primary entry point for
// external projects.
//
// If config.SchemaProvider is nil, a file-based provider is built from
// config.Form.FieldDirectory. The preference store, attachment store, and
// local layer lookup provider are created from their config sections when
// enabled.
//
// Usage:
//
//	config := formkit.DefaultConfig()
//	config.Form.FieldDirectory = "./fields"
//	engine, err := factory.NewFormEngineWithConfig(context.Background(), config, pool)
//	if err != nil {
//	    // handle error
//	}
func NewFormEngineWithConfig(ctx context.Context, config *formkit.Config, pool *pgxpool.Pool) (formkit.FormEngine, error) {
	if config == nil {
		config = formkit.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("a database pool is required")
	}

	schema := config.SchemaProvider
	if schema == nil {
		if config.Form.FieldDirectory == "" {
			return nil, fmt.Errorf("config.SchemaProvider or form.fieldDirectory is required")
		}
		fileProvider, err := internal.NewFileSchemaProvider(config.Form.FieldDirectory)
		if err != nil {
			return nil, fmt.Errorf("build file schema provider: %w", err)
		}
		schema = fileProvider
	}

	deps := internal.EngineDeps{
		Schema:   schema,
		Store:    internal.NewPostgresFeatureStore(pool),
		Lookup:   config.Lookup,
		Location: config.Location,
	}

	if config.Preferences.Path != "" {
		prefs, err := internal.NewSQLitePreferenceStore(config.Preferences.Path)
		if err != nil {
			return nil, fmt.Errorf("open preference store: %w", err)
		}
		deps.Prefs = prefs
	}

	if config.Storage.Enabled {
		attachments, err := internal.NewS3AttachmentStore(ctx, config.Storage)
		if err != nil {
			return nil, fmt.Errorf("build attachment store: %w", err)
		}
		deps.Attachments = attachments
	}

	if deps.Lookup == nil && config.LocalLayer.Enabled {
		local, err := internal.NewLocalLayerStore(config.LocalLayer)
		if err != nil {
			return nil, fmt.Errorf("open local layer store: %w", err)
		}
		deps.Lookup = local
	}

	return internal.NewEngine(config, deps)
}

// NewFormEngine creates a FormEngine from explicit collaborators, for
// callers that manage their own stores.
func NewFormEngine(config *formkit.Config, schema formkit.SchemaProvider, store formkit.FeatureStore) (formkit.FormEngine, error) {
	return internal.NewEngine(config, internal.EngineDeps{
		Schema: schema,
		Store:  store,
	})
}
