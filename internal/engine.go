package internal

import (
	"context"

	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
)

// Engine builds editing sessions. Collaborators are injected once at
// construction; every session shares them.
type Engine struct {
	cfg         *formkit.Config
	schema      formkit.SchemaProvider
	store       formkit.FeatureStore
	attachments formkit.AttachmentStore
	prefs       formkit.PreferenceStore
	lookup      formkit.LookupProvider
	location    formkit.LocationProvider
	builder     *Builder
}

// EngineDeps carries the collaborators an engine is wired with.
type EngineDeps struct {
	Schema      formkit.SchemaProvider
	Store       formkit.FeatureStore
	Attachments formkit.AttachmentStore
	Prefs       formkit.PreferenceStore
	Lookup      formkit.LookupProvider
	Location    formkit.LocationProvider
	Registry    *Registry
}

// NewEngine wires an engine from config and collaborators. The schema
// provider and feature store are required.
func NewEngine(cfg *formkit.Config, deps EngineDeps) (*Engine, error) {
	if cfg == nil {
		cfg = formkit.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Schema == nil {
		return nil, formkit.NewFormError(formkit.ErrorTypeInternal, formkit.ErrCodeConfigRequired,
			"a schema provider is required")
	}
	if deps.Store == nil {
		return nil, formkit.NewFormError(formkit.ErrorTypeInternal, formkit.ErrCodeConfigRequired,
			"a feature store is required")
	}
	location := deps.Location
	if location == nil {
		location = formkit.NoLocation{}
	}
	return &Engine{
		cfg:         cfg,
		schema:      deps.Schema,
		store:       deps.Store,
		attachments: deps.Attachments,
		prefs:       deps.Prefs,
		lookup:      deps.Lookup,
		location:    location,
		builder:     NewBuilder(deps.Registry, cfg.Logging.LogSkippedElements),
	}, nil
}

// NewSession parses and validates the form specification, loads the layer
// schema, binds every element, and returns a ready session. The feature
// cursor opened for an existing feature is closed before this returns,
// on success and on every error path.
func (e *Engine) NewSession(ctx context.Context, req *formkit.SessionRequest) (formkit.FormSession, error) {
	if req == nil || req.Layer == "" {
		return nil, formkit.NewFormError(formkit.ErrorTypeValidation, formkit.ErrCodeValueInvalid,
			"a session request with a layer is required")
	}

	spec := req.Spec
	if spec == nil {
		if len(req.SpecData) == 0 {
			return nil, formkit.NewFormParseError("no form specification supplied")
		}
		if e.cfg.Form.ValidateSpec {
			if err := formkit.ValidateFormSpec(req.SpecData); err != nil {
				return nil, err
			}
		}
		parsed, err := formkit.ParseFormSpec(req.SpecData)
		if err != nil {
			return nil, err
		}
		spec = parsed
	}

	fields, err := e.schema.GetFields(ctx, req.Layer)
	if err != nil {
		if formkit.IsNotFoundError(err) {
			return nil, err
		}
		return nil, formkit.NewFormError(formkit.ErrorTypeInternal, formkit.ErrCodeSchemaInvalid,
			"loading layer schema failed").WithLayer(req.Layer).WithCause(err)
	}

	orientation := req.Orientation
	if orientation == "" {
		orientation = e.cfg.Form.DefaultOrientation
	}

	bind := &BindContext{
		Layer:        req.Layer,
		Fields:       formkit.NewFieldMap(fields),
		State:        req.SavedState,
		Store:        e.store,
		Attachments:  e.attachments,
		Prefs:        e.prefs,
		Lookup:       e.lookup,
		Location:     e.location,
		Geometry:     req.Geometry,
		FeatureID:    req.FeatureID,
		NewFeature:   req.NewFeature(),
		ViewOnly:     req.ViewOnly,
		Orientation:  orientation,
		Translations: req.Translations,
		MaxStringLen: e.cfg.Form.MaxStringLength,
	}

	if !req.NewFeature() {
		cursor, cerr := e.store.OpenFeature(ctx, req.Layer, req.FeatureID)
		if cerr != nil {
			if formkit.IsNotFoundError(cerr) {
				return nil, cerr
			}
			return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
				"opening feature cursor failed", cerr).WithLayer(req.Layer)
		}
		bind.Cursor = cursor
		defer func() {
			if closeErr := cursor.Close(); closeErr != nil {
				zap.S().Warnw("closing feature cursor failed",
					"layer", req.Layer, "feature", req.FeatureID, "error", closeErr)
			}
		}()
	}

	result, err := e.builder.Build(ctx, spec, bind)
	if err != nil {
		return nil, err
	}

	session := &Session{
		layer:      req.Layer,
		featureID:  req.FeatureID,
		newFeature: req.NewFeature(),
		state:      formkit.SessionStateReady,
		layout:     result.Layout,
		controls:   result.Controls,
		byField:    result.ByField(),
		fields:     bind.Fields,
		store:      e.store,
		prefs:      e.prefs,
		location:   e.location,
		geometry:   req.Geometry,
		viewOnly:   req.ViewOnly,
	}
	zap.S().Debugw("form session ready",
		"layer", req.Layer,
		"feature", req.FeatureID,
		"controls", len(result.Controls),
		"viewOnly", req.ViewOnly)
	return session, nil
}
