package webui

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBufferKeepsNewest(t *testing.T) {
	lb := NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		_, err := fmt.Fprintf(lb, `{"level":"info","message":"line %d"}`+"\n", i)
		require.NoError(t, err)
	}

	entries := lb.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "line 3", entries[0].Message)
	assert.Equal(t, "line 5", entries[2].Message)
	assert.Equal(t, 3, lb.Len())

	recent := lb.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "line 4", recent[0].Message)
}

func TestLogBufferPartiallyFilled(t *testing.T) {
	lb := NewLogBuffer(10)
	assert.Empty(t, lb.Entries())

	_, _ = io.WriteString(lb, "plain text line\n")
	entries := lb.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "plain text line", entries[0].Message)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestLogBufferParsesZerolog(t *testing.T) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lb := NewLogBuffer(10)
	logger := zerolog.New(lb).With().Timestamp().Logger()

	logger.Warn().Str("component", "simulator").Msg("Energy sample appended")
	logger.Error().Str("component", "publisher").Msg("Publish failed")

	entries := lb.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "simulator", entries[0].Component)
	assert.Equal(t, "Energy sample appended", entries[0].Message)
	assert.WithinDuration(t, time.Now(), entries[0].Timestamp, time.Minute)

	sim := lb.ForComponent("simulator", 10)
	require.Len(t, sim, 1)
	assert.Equal(t, "Energy sample appended", sim[0].Message)
	assert.Empty(t, lb.ForComponent("api", 10))
}
