package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONForDocker(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{ServiceName: "vending", Env: "docker", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("product created")
	Sync(logger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "product created", entry["msg"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "vending", entry["service"])
	require.Equal(t, "docker", entry["env"])
	require.NotContains(t, entry, "caller")
}

func TestNew_ConsoleForLocal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{ServiceName: "vending", Env: "local", Level: "debug", Output: &buf})
	require.NoError(t, err)

	logger.Debug("debug line")
	require.Contains(t, buf.String(), "debug line")
	require.Contains(t, buf.String(), "logger_test.go")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	require.Error(t, err)

	_, err = New(Config{Level: "fatal"})
	require.Error(t, err)

	_, err = New(Config{Format: "xml"})
	require.Error(t, err)
}
