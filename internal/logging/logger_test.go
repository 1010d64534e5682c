// SPDX-License-Identifier: AGPL-3.0-only
package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestNewWritesJSONWhenNotATerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "info")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("report rendered", "sections", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "report rendered", entry["msg"])
	require.Equal(t, float64(7), entry["sections"])
}
