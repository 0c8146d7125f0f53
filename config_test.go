package formkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, OrientationPortrait, cfg.Form.DefaultOrientation)
	assert.True(t, cfg.Form.ValidateSpec)
}

func TestConfigValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			"no connections",
			func(c *Config) { c.Database.MaxConnections = 0 },
			"database.maxConnections",
		},
		{
			"storage without bucket",
			func(c *Config) { c.Storage.Enabled = true },
			"storage.bucket",
		},
		{
			"storage bad part size",
			func(c *Config) {
				c.Storage.Enabled = true
				c.Storage.Bucket = "attachments"
				c.Storage.UploadPartSizeMB = 0
			},
			"storage.uploadPartSizeMb",
		},
		{
			"zero string length",
			func(c *Config) { c.Form.MaxStringLength = 0 },
			"form.maxStringLength",
		},
		{
			"zero gallery size",
			func(c *Config) { c.Form.GalleryMaxPhotos = 0 },
			"form.galleryMaxPhotos",
		},
		{
			"bad orientation",
			func(c *Config) { c.Form.DefaultOrientation = "diagonal" },
			"form.defaultOrientation",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}
