package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	require.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestNewWithWriterJSON(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, "warn", "json")
	logger.Info().Msg("dropped")
	logger.Warn().Str("component", "hub").Msg("kept")

	var line map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &line))
	req.Equal("kept", line["message"])
	req.Equal("hub", line["component"])
	req.Contains(line, "time")
}
