package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 6*time.Minute, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 8, cfg.Generation.PreviewPages)
	assert.Equal(t, 1, cfg.Storage.RendersExpireDays)
	assert.Equal(t, 15*time.Minute, cfg.Generation.RunLeaseTTL)
	assert.Equal(t, 30*time.Minute, cfg.Generation.StaleAfter)
	assert.Equal(t, "illustrations", cfg.Storage.BucketIllustrations)
	assert.Equal(t, "books:generate", cfg.Redis.Stream)
	assert.False(t, cfg.Generation.PaymentBypass)
}

func TestDecodeYAMLOverrides(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	yaml := `
environment: production
allowcorsorigins: "https://a.example,https://b.example"
generation:
  previewpages: 2
  staleafter: 45m
  paymentbypass: true
`
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowCORSOrigins)
	assert.Equal(t, 2, cfg.Generation.PreviewPages)
	assert.Equal(t, 45*time.Minute, cfg.Generation.StaleAfter)
	assert.True(t, cfg.Generation.PaymentBypass)
}

func TestDecodeRejectsNegativePreviewPages(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("generation.previewpages", -1)

	_, err := decode(v)
	assert.Error(t, err)
}
