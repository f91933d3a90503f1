package obs

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalKeepsMostRecentEvents(t *testing.T) {
	j := NewJournal(3, zerolog.Nop())

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		j.Emit(Event{Level: LevelInfo, Module: ModuleCore, Message: msg})
	}

	got := j.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Message)
	assert.Equal(t, "e", got[2].Message)
	assert.Equal(t, uint64(5), got[2].Seq)

	last := j.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "e", last[0].Message)
}

func TestJournalMirrorsToLogger(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(10, zerolog.New(&buf))

	j.Emit(Event{
		Level:   LevelAPI,
		Module:  ModuleGeocoder,
		Message: "lookup attempt",
		Details: map[string]any{"attempt": 2},
	}.Cost(150 * time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, `"module":"GEOCODER"`)
	assert.Contains(t, out, `"cost_ms":150`)
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, `"level_tag":"API"`)
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	_, err := NewLogger("info", "xml", nil)
	require.Error(t, err)

	_, err = NewLogger("loud", "json", nil)
	require.Error(t, err)

	log, err := NewLogger("debug", "console", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}
