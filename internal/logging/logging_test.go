package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "racesim", "info")

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Info().Int("lap", 2).Msg("lap completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "racesim", entry["service"])
	assert.Equal(t, "lap completed", entry["message"])
	assert.Equal(t, float64(2), entry["lap"])
	assert.Contains(t, entry, "time")
}

func TestSampled(t *testing.T) {
	var buf bytes.Buffer
	log := Sampled(New(&buf, "lobby", "debug"))

	for i := 0; i < 50; i++ {
		log.Debug().Msg("correction")
	}
	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.GreaterOrEqual(t, lines, 5)
	assert.Less(t, lines, 50)
}
