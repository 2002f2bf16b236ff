package similarity

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable_IncludesSequence(t *testing.T) {
	assert.Contains(t, Available(), SequenceBackend)
}

func TestSelect_UnknownBackendFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sel := Select("does-not-exist", logger)
	require.NotNil(t, sel.Scorer)
	assert.True(t, sel.Fallback)
	assert.Equal(t, "does-not-exist", sel.Requested)
	assert.Equal(t, SequenceBackend, sel.Scorer.Backend())
	assert.Contains(t, buf.String(), "similarity backend unavailable")

	// Reported once per requested backend
	buf.Reset()
	again := Select("does-not-exist", logger)
	assert.True(t, again.Fallback)
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestSelect_Sequence(t *testing.T) {
	sel := Select(SequenceBackend, nil)
	assert.False(t, sel.Fallback)
	assert.Equal(t, SequenceBackend, sel.Scorer.Backend())
}

func TestSelect_NilLogger(t *testing.T) {
	sel := Select("another-missing-backend", nil)
	assert.True(t, sel.Fallback)
}
