package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"setdb-init/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = &ZapLogger{}
}

func TestLogrusLogger_JSONOutputCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "debug", "json")

	ctx := context.WithValue(context.Background(), contextkeys.RunIDKey, "run-1")
	ctx = context.WithValue(ctx, contextkeys.DatabaseKey, "rust_app_db")
	ctx = context.WithValue(ctx, contextkeys.StepKey, "")

	log.WithContext(ctx).WithComponent("bootstrap").Info("step finished")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step finished", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "rust_app_db", entry["database"])
	assert.Equal(t, "bootstrap", entry["component"])
	assert.NotContains(t, entry, "step", "empty context values are skipped")
}

func TestLogrusLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "warn", "text")

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warnf("visible %d", 1)
	assert.Contains(t, buf.String(), "visible 1")
}

func TestLogrusLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "nonsense", "text")

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestZapLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLoggerWithWriter(&buf, "INFO", "json")
	require.NoError(t, err)

	log.WithFields(map[string]interface{}{"collection": "setgames"}).Infof("created %s", "setgames")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created setgames", entry["message"])
	assert.Equal(t, "setgames", entry["collection"])
	assert.Equal(t, "info", entry["level"])
}

func TestZapLogger_LevelParsing(t *testing.T) {
	_, err := NewZapLoggerWithWriter(&bytes.Buffer{}, "warning", "text")
	assert.NoError(t, err)

	_, err = NewZapLoggerWithWriter(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)
}

func TestNewLogger_SelectsZapBackend(t *testing.T) {
	t.Setenv("LOG_BACKEND", "zap")
	t.Setenv("LOG_LEVEL", "debug")

	_, ok := NewLogger().(*ZapLogger)
	assert.True(t, ok)
}

func TestNewLoggerTo_LevelOverridesEnv(t *testing.T) {
	t.Setenv("LOG_BACKEND", "")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")

	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "debug")
	log.Debug("driver detail")

	assert.Contains(t, buf.String(), `"message":"driver detail"`)

	buf.Reset()
	NewLoggerTo(&buf, "").Info("filtered")
	assert.Empty(t, buf.String())
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(NewLoggerWithWriter(&buf, "info", "text"))
	Default().Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")

	SetDefault(nil)
	assert.NotNil(t, Default())
}
