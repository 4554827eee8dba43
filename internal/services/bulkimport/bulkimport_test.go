package bulkimport

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

const sample = `[
  {"city_name": "Seattle", "dt": 283996800, "dt_iso": "1979-01-01 00:00:00 +0000 UTC",
   "main": {"temp": 40.1, "temp_min": 38.0, "temp_max": 41.2, "humidity": 80},
   "weather": [{"id": 500, "main": "Rain"}]},
  {"dt_iso": "1979-01-01 13:00:00 +0000 UTC", "main": {"temp_max": 45.5}},
  {"dt_iso": "1979-01-01 23:00:00 +0000 UTC", "main": {"temp_max": 43.0}},
  {"dt_iso": "1979-01-02 00:00:00 +0000 UTC", "main": {"temp_max": 39.9}},
  {"dt_iso": "1979-01-02 01:00:00 +0000 UTC", "main": {}},
  {"main": {"temp_max": 99.0}},
  {"dt_iso": "1979-01-03 12:00:00 +0000 UTC", "main": {"temp_max": -3.5}}
]`

func newTestParser() *Parser {
	return NewParser(logger.NewZapLogger("test-app", io.Discard))
}

func TestParser_Parse(t *testing.T) {
	history, stats, err := newTestParser().Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, models.History{
		"1979-01-01": 45.5,
		"1979-01-02": 39.9,
		"1979-01-03": -3.5,
	}, history)
	assert.Equal(t, Stats{Items: 7, Skipped: 2, Days: 3}, stats)
}

func TestParser_SkipsItemsWithoutCalendarDate(t *testing.T) {
	input := `[
	  {"dt_iso": "1979-01-01 00:00:00 +0000 UTC", "main": {"temp_max": 40}},
	  {"dt_iso": "garbage-value-here", "main": {"temp_max": 41}},
	  {"dt_iso": "1979-13-01 00:00:00 +0000 UTC", "main": {"temp_max": 42}},
	  {"dt_iso": "1979-01-01", "main": {"temp_max": 43}}
	]`

	history, stats, err := newTestParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, models.History{"1979-01-01": 43}, history)
	assert.Equal(t, Stats{Items: 4, Skipped: 2, Days: 1}, stats)
	assert.NoError(t, history.Validate())
}

func TestParser_EmptyArray(t *testing.T) {
	history, stats, err := newTestParser().Parse(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, Stats{}, stats)
}

func TestParser_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not an array", `{"dt_iso": "1979-01-01"}`},
		{"truncated", `[{"dt_iso": "1979-01-01 00:00:00", "main": {"temp_max": 4`},
		{"empty input", ``},
		{"unterminated array", `[{"dt_iso": "1979-01-01 00:00:00", "main": {"temp_max": 4}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestParser().Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ow_full_seattle_dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	history, stats, err := newTestParser().ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, 3, stats.Days)

	_, _, err = newTestParser().ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
