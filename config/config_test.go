package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, env.UnitsMetric, cfg.Station.UnitSystem)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, env.RetryAttempts, cfg.Retry.Attempts)
	assert.Equal(t, env.RetryDelay, cfg.Retry.Delay)
	assert.Equal(t, "weather", cfg.MQTT.TopicPrefix)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, time.Minute, cfg.PublishInterval)
	assert.Equal(t, env.LegacyStorageFile, cfg.Storage.LegacyFile)

	loc, err := cfg.Station.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highlow.yaml")
	body := `
station:
  unit_system: imperial
  timezone: Europe/London
database:
  driver: memory
mqtt:
  enabled: false
publish_interval: 30s
retry:
  attempts: 5
  delay: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, env.UnitsImperial, cfg.Station.UnitSystem)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, 30*time.Second, cfg.PublishInterval)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)

	loc, err := cfg.Station.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HIGHLOW_DATABASE_HOST", "db.lan")
	t.Setenv("HIGHLOW_MQTT_TOPIC_PREFIX", "station/roof")
	t.Setenv("HIGHLOW_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "db.lan", cfg.Database.Host)
	assert.Equal(t, "station/roof", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unit system", "HIGHLOW_STATION_UNIT_SYSTEM", "kelvin"},
		{"timezone", "HIGHLOW_STATION_TIMEZONE", "Mars/Olympus_Mons"},
		{"driver", "HIGHLOW_DATABASE_DRIVER", "sqlite"},
		{"retry attempts", "HIGHLOW_RETRY_ATTEMPTS", "0"},
		{"publish interval", "HIGHLOW_PUBLISH_INTERVAL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			require.Error(t, err)
			assert.True(t, apperr.IsConfiguration(err))
		})
	}
}

func TestValidateRequiredFields(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	noHost := *cfg
	noHost.Database.Host = ""
	assert.Error(t, validate(&noHost))

	memory := noHost
	memory.Database.Driver = DriverMemory
	assert.NoError(t, validate(&memory))

	noBroker := *cfg
	noBroker.MQTT.Broker = ""
	assert.Error(t, validate(&noBroker))

	noBroker.MQTT.Enabled = false
	assert.NoError(t, validate(&noBroker))
}
