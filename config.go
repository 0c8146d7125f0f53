package formkit

import (
	"time"
)

// Config consolidates engine settings and injected collaborators
type Config struct {
	Database    DatabaseConfig    `json:"database"`
	Storage     StorageConfig     `json:"storage"`
	Preferences PreferencesConfig `json:"preferences"`
	LocalLayer  LocalLayerConfig  `json:"localLayer"`
	Form        FormConfig        `json:"form"`
	Logging     LoggingConfig     `json:"logging"`

	// SchemaProvider supplies layer field definitions. Required; callers
	// provide their own implementation or use the file-based provider
	// configured through Form.FieldDirectory.
	SchemaProvider SchemaProvider `json:"-"`
	// Location reports the device's last known position. Defaults to a
	// provider with no fix.
	Location LocationProvider `json:"-"`
	// Lookup resolves external lookup tables. Defaults to the local layer
	// store when configured.
	Lookup LookupProvider `json:"-"`
}

// DatabaseConfig contains feature database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	UseIAMAuth      bool          `json:"useIamAuth"` // derive the password from an IAM token
	Region          string        `json:"region"`
	MaxConnections  int           `json:"maxConnections"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	Timeout         time.Duration `json:"timeout"`
}

// StorageConfig contains attachment storage (S3) settings
type StorageConfig struct {
	Enabled          bool   `json:"enabled"`
	Bucket           string `json:"bucket"`
	Prefix           string `json:"prefix"`
	Region           string `json:"region"`
	Endpoint         string `json:"endpoint"` // non-AWS endpoints (e.g. MinIO)
	AccessKey        string `json:"accessKey"`
	SecretKey        string `json:"secretKey"`
	ForcePathStyle   bool   `json:"forcePathStyle"`
	UploadPartSizeMB int    `json:"uploadPartSizeMb"`
}

// PreferencesConfig contains the "remember last value" store settings
type PreferencesConfig struct {
	Path string `json:"path"` // SQLite file path, ":memory:" for ephemeral
}

// LocalLayerConfig contains local layer snapshot (DuckDB) settings
type LocalLayerConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"` // empty for in-memory
}

// FormConfig contains form building settings
type FormConfig struct {
	DefaultOrientation Orientation `json:"defaultOrientation"`
	ValidateSpec       bool        `json:"validateSpec"` // validate documents against the form JSON schema
	FieldDirectory     string      `json:"fieldDirectory"`
	MaxStringLength    int         `json:"maxStringLength"`
	GalleryMaxPhotos   int         `json:"galleryMaxPhotos"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level              string `json:"level"`
	Format             string `json:"format"`
	LogSkippedElements bool   `json:"logSkippedElements"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  10,
			ConnMaxLifetime: 5 * time.Minute,
			Timeout:         30 * time.Second,
		},
		Storage: StorageConfig{
			UploadPartSizeMB: 8,
		},
		Preferences: PreferencesConfig{
			Path: "formkit_prefs.db",
		},
		Form: FormConfig{
			DefaultOrientation: OrientationPortrait,
			ValidateSpec:       true,
			MaxStringLength:    255,
			GalleryMaxPhotos:   5,
		},
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			LogSkippedElements: true,
		},
		Location: NoLocation{},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return &ConfigError{Field: "storage.bucket", Message: "required when storage is enabled"}
	}
	if c.Storage.Enabled && c.Storage.UploadPartSizeMB <= 0 {
		return &ConfigError{Field: "storage.uploadPartSizeMb", Message: "must be greater than 0"}
	}
	if c.Form.MaxStringLength <= 0 {
		return &ConfigError{Field: "form.maxStringLength", Message: "must be greater than 0"}
	}
	if c.Form.GalleryMaxPhotos <= 0 {
		return &ConfigError{Field: "form.galleryMaxPhotos", Message: "must be greater than 0"}
	}
	switch c.Form.DefaultOrientation {
	case OrientationPortrait, OrientationAlbum:
	default:
		return &ConfigError{Field: "form.defaultOrientation", Message: "must be 'portrait' or 'album'"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
