package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConvertZoneID(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"UTC", "UTC"},
		{"right/UTC", "UTC"},
		{"posix/UTC", "UTC"},
		{"Factory", "UTC"},
		{"ROC", "+08:00"},
		{"+08:00", "+08:00"},
		{"-05:30", "-05:30"},
		{"Asia/Tokyo", "Asia/Tokyo"},
		{"posix/Asia/Tokyo", "Asia/Tokyo"},
	}

	for _, cs := range cases {
		loc := ConvertZoneID(cs.id)
		require.Equal(t, cs.want, loc.String(), "zone %q", cs.id)
	}
}

func TestConvertZoneIDNuuk(t *testing.T) {
	loc := ConvertZoneID("America/Nuuk")
	require.Equal(t, "America/Godthab", loc.String())
}

func TestConvertZoneIDUnknownFallsBack(t *testing.T) {
	require.Equal(t, time.Local, ConvertZoneID("No/Such_Zone"))
}

func TestIsFixedOffset(t *testing.T) {
	require.True(t, IsFixedOffset(time.UTC))
	require.True(t, IsFixedOffset(time.FixedZone("+08:00", 8*3600)))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	require.False(t, IsFixedOffset(tokyo))
}
