package styles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		width    int
		expected string
	}{
		{"fits", "RUNNING", 10, "RUNNING"},
		{"exact", "RUNNING", 7, "RUNNING"},
		{"ellipsis", "CANCELLED", 6, "CAN..."},
		{"tiny", "CANCELLED", 2, "CA"},
		{"zero", "CANCELLED", 0, ""},
		{"wide runes", "処理中です", 7, "処理..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, TruncateString(tt.in, tt.width))
		})
	}
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "ab   ", PadRight("ab", 5))
	require.Equal(t, "処 ", PadRight("処", 3))
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago      time.Duration
		expected string
	}{
		{0, "just now"},
		{500 * time.Millisecond, "just now"},
		{42 * time.Second, "42s ago"},
		{3 * time.Minute, "3m ago"},
		{2*time.Hour + 10*time.Minute, "2h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, FormatAge(now.Add(-tt.ago), now), "ago=%v", tt.ago)
	}
	require.Equal(t, "never", FormatAge(time.Time{}, now))
}

func TestDescriptorColor(t *testing.T) {
	require.Equal(t, DescriptorBlueColor, DescriptorColor("blue"))
	require.Equal(t, DescriptorGreyColor, DescriptorColor("grey"))
	require.Equal(t, DescriptorGreenColor, DescriptorColor("green"))
	require.Equal(t, DescriptorRedColor, DescriptorColor("red"))
	require.Equal(t, TextMutedColor, DescriptorColor(""))
	require.Equal(t, TextMutedColor, DescriptorColor("mauve"))
}
