package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsRoundTrip(t *testing.T) {
	at := time.Date(2025, time.November, 27, 15, 57, 0, 0, time.UTC)
	label := StartLabel(Day(at), Clock(at))
	assert.Equal(t, "START: 27/11/2025 - 15:57", label)

	got, ok := ParseLabel(label, time.UTC)
	require.True(t, ok)
	assert.Equal(t, at, got)

	got, ok = ParseLabel(EndLabel("28/11/2025", "06:00"), time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.November, 28, 6, 0, 0, 0, time.UTC), got)
}

func TestParseLabelBareStamp(t *testing.T) {
	got, ok := ParseLabel("01/02/2026 - 21:05", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.February, 1, 21, 5, 0, 0, time.UTC), got)

	_, ok = ParseLabel("START: tomorrow", time.UTC)
	assert.False(t, ok)
	_, ok = ParseLabel("START: 31/02/2026 - 10:00", time.UTC)
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2025-03-04", "2025-03-04T10:11:12Z", "04/03/2025", " 04/03/2025 "} {
		got, ok := ParseDate(s, time.UTC)
		require.True(t, ok, s)
		assert.Equal(t, want, got, s)
	}
	_, ok := ParseDate("4/3/25", time.UTC)
	assert.False(t, ok)
}

func TestExpiryCode(t *testing.T) {
	assert.Equal(t, "2026/48", ExpiryCode(time.Date(2025, time.November, 27, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2027/01", ExpiryCode(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "27/11/2025 - 08:03", Stamp(time.Date(2025, 11, 27, 8, 3, 0, 0, time.UTC)))
}
