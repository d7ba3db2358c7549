package logsink_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/andrei-cloud/plugcore/pkg/plugincore/logsink"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerolog(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		level plugincore.Level
		want  string
	}{
		{level: plugincore.LevelInfo, want: "info"},
		{level: plugincore.LevelWarn, want: "warn"},
		{level: plugincore.LevelError, want: "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.level.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			sink := logsink.Zerolog(zerolog.New(&buf), "bu")
			sink(tc.level, "Loaded 1 command(s)")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tc.want, entry["level"])
			assert.Equal(t, "plugincore", entry["component"])
			assert.Equal(t, "bu", entry["namespace"])
			assert.Equal(t, "Loaded 1 command(s)", entry["message"])
		})
	}
}

func TestZerologFlushesChannel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := logsink.Zerolog(zerolog.New(&buf), "bu")

	c := plugincore.NewChannel()
	c.Log(plugincore.LevelInfo, "first")
	c.Log(plugincore.LevelWarn, "second")
	c.SetLogger(sink)
	c.Flush(sink)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"first"`)
	assert.Contains(t, lines[1], `"message":"second"`)
}

func TestLogrus(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	sink := logsink.Logrus(logger, "ged")

	sink(plugincore.LevelInfo, "info message")
	sink(plugincore.LevelWarn, "warn message")
	sink(plugincore.LevelError, "error message")

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, logrus.ErrorLevel, entries[2].Level)
	assert.Equal(t, "error message", entries[2].Message)
	assert.Equal(t, "ged", entries[2].Data["namespace"])
	assert.Equal(t, "plugincore", entries[2].Data["component"])
}
