package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"Warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetup_WritesConsoleAndFile(t *testing.T) {
	var console, file bytes.Buffer
	log := Setup(&console, &file, "info")

	log.Info().Str("asset", "car").Msg("asset loaded")

	assert.Contains(t, console.String(), "asset loaded")
	assert.Contains(t, file.String(), "asset loaded")
	assert.Contains(t, file.String(), "asset=car")
	assert.NotContains(t, file.String(), "\x1b[", "file output must not carry colour codes")
}

func TestSetup_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	log := Setup(&console, nil, "warn")

	log.Info().Msg("should be filtered")
	log.Warn().Msg("should appear")

	assert.NotContains(t, console.String(), "should be filtered")
	assert.Contains(t, console.String(), "should appear")
}

func TestOpenFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "citydrive.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
