package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelRouting(t *testing.T) {
	var stdout, stderr, file bytes.Buffer
	logger := newLogger(&stdout, &stderr, &file, false)

	logger.Debugw("debug entry")
	logger.Infow("info entry", "material_id", "m1")
	logger.Warnw("warn entry")
	logger.Errorw("error entry")

	assert.NotContains(t, stdout.String(), "debug entry")
	assert.Contains(t, stdout.String(), "info entry")
	assert.Contains(t, stdout.String(), "warn entry")
	assert.NotContains(t, stdout.String(), "error entry")

	assert.Contains(t, stderr.String(), "error entry")
	assert.NotContains(t, stderr.String(), "info entry")

	for _, msg := range []string{"info entry", "warn entry", "error entry"} {
		assert.Contains(t, file.String(), msg)
	}
	assert.Contains(t, file.String(), `"material_id":"m1"`)
}

func TestDebugLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := newLogger(&stdout, &stderr, nil, true)

	logger.Debugw("debug entry")
	assert.Contains(t, stdout.String(), "debug entry")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinela.log")

	logger, cleanup, err := New(Options{File: path})
	require.NoError(t, err)
	logger.Infow("written to file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewBadFile(t *testing.T) {
	_, _, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
