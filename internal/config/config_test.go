package config

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(afero.NewMemMapFs(), []string{"/data/data-20221013"})
	require.NoError(t, err)

	assert.Equal(t, "/data/data-20221013", cfg.Input.Path)
	assert.Equal(t, "data", cfg.Input.DataDir)
	assert.Equal(t, "*.json", cfg.Input.Pattern)
	assert.Equal(t, "prepared-data-20221013", cfg.Output.Dir)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, []string{SinkFile}, cfg.Output.Sinks)
	assert.Equal(t, 1, cfg.Pipeline.Workers)
	assert.True(t, cfg.Pipeline.Strict)
	assert.False(t, cfg.Log.Debug)
	assert.Equal(t, "catalog:stream:records", cfg.Redis.Stream)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "host=localhost port=5432 user=catalog_user password=catalog_pass dbname=catalog sslmode=disable", cfg.Database.DSN())
}

func TestLoadFlags(t *testing.T) {
	cfg, err := load(afero.NewMemMapFs(), []string{
		"-d", "--format", "jsonl", "-o", "/tmp/out", "-w", "4", "--strict=false", "/data/set",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, FormatJSONL, cfg.Output.Format)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.Pipeline.Strict)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/consolidate.yaml", []byte(`
input:
  data_dir: pages
  urls:
    - http://example.test/food_976759.json
output:
  sinks: [file, redis]
pipeline:
  workers: 2
redis:
  stream: food:records
`), 0o644))

	t.Setenv("CONSOLIDATE_PIPELINE_WORKERS", "3")

	cfg, err := load(fs, []string{"--config", "/etc/consolidate.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "pages", cfg.Input.DataDir)
	assert.Equal(t, []string{"http://example.test/food_976759.json"}, cfg.Input.URLs)
	assert.Equal(t, []string{SinkFile, SinkRedis}, cfg.Output.Sinks)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, "food:records", cfg.Redis.Stream)
	assert.Equal(t, "prepared-dataset", cfg.Output.Dir)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no input", args: nil},
		{name: "bad format", args: []string{"-f", "parquet", "/data"}},
		{name: "no workers", args: []string{"-w", "0", "/data"}},
		{name: "too many paths", args: []string{"/a", "/b"}},
		{name: "missing config file", args: []string{"-c", "/nope.yaml", "/data"}},
		{name: "unknown flag", args: []string{"--nope", "/data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(afero.NewMemMapFs(), tt.args)
			assert.Error(t, err)
		})
	}
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	require.NoError(t, ConfigureLogging(LogConfig{Level: "warn"}))
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	require.NoError(t, ConfigureLogging(LogConfig{Level: "warn", Debug: true}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	assert.Error(t, ConfigureLogging(LogConfig{Level: "loud"}))
}
