package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Debug("test", "debug", nil)
		l.Info("test", "info", nil)
		l.Warn("test", "warn", nil)
		l.Error("test", "error", map[string]interface{}{"error": errors.New("boom")})
	})
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(path, true)

	l.Info("catalog", "dispatched", map[string]interface{}{"kind": "search"})
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"dispatched"`)
	assert.Contains(t, string(data), `"module":"catalog"`)
}
