package virkning

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompare_SentinelsBracketEveryInstant(t *testing.T) {
	points := []TimePoint{
		PositiveInfinity,
		Date(2017, 1, 1),
		NegativeInfinity,
		At(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)),
		Date(9999, 12, 31),
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	require.True(t, points[0].IsNegativeInfinity())
	require.True(t, points[len(points)-1].IsPositiveInfinity())
	require.Equal(t, Date(2017, 1, 1), points[2])
	require.Equal(t, 0, PositiveInfinity.Compare(PositiveInfinity))
	require.Equal(t, 0, NegativeInfinity.Compare(NegativeInfinity))
}

func TestSub_RejectsSentinels(t *testing.T) {
	_, err := PositiveInfinity.Sub(Date(2020, 1, 1))
	require.ErrorIs(t, err, ErrSentinelArithmetic)

	_, err = Date(2020, 1, 1).Sub(NegativeInfinity)
	require.ErrorIs(t, err, ErrSentinelArithmetic)

	d, err := Date(2020, 1, 2).Sub(Date(2020, 1, 1))
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, d)
}

func TestFormat_RejectsSentinels(t *testing.T) {
	_, err := NegativeInfinity.Format(time.DateOnly)
	require.ErrorIs(t, err, ErrSentinelArithmetic)

	s, err := Date(2020, 3, 4).Format(time.DateOnly)
	require.NoError(t, err)
	require.Equal(t, "2020-03-04", s)
}

func TestParse_AcceptsLoRaLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2017-01-01 00:00:00+01":    time.Date(2017, 1, 1, 0, 0, 0, 0, time.FixedZone("", 3600)),
		"2017-01-01T00:00:00+01:00": time.Date(2017, 1, 1, 0, 0, 0, 0, time.FixedZone("", 3600)),
		"2017-06-30":                time.Date(2017, 6, 30, 0, 0, 0, 0, time.UTC),
		"2017-01-01 12:30:00+00:00": time.Date(2017, 1, 1, 12, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		gotTime, ok := got.Time()
		require.True(t, ok)
		require.True(t, want.Equal(gotTime), "%s: got %s", in, gotTime)
	}

	p, err := Parse("infinity")
	require.NoError(t, err)
	require.True(t, p.IsPositiveInfinity())

	p, err = Parse(" -Infinity ")
	require.NoError(t, err)
	require.True(t, p.IsNegativeInfinity())

	_, err = Parse("yesterday")
	require.Error(t, err)
	_, err = Parse("")
	require.Error(t, err)
}

func TestTimePoint_JSONUsesSentinelLiterals(t *testing.T) {
	b, err := json.Marshal([]TimePoint{NegativeInfinity, PositiveInfinity})
	require.NoError(t, err)
	require.JSONEq(t, `["-infinity","infinity"]`, string(b))

	var out []TimePoint
	require.NoError(t, json.Unmarshal([]byte(`["-infinity","2020-01-01","infinity"]`), &out))
	require.Equal(t, []TimePoint{NegativeInfinity, Date(2020, 1, 1), PositiveInfinity}, out)

	require.Error(t, json.Unmarshal([]byte(`[42]`), &out))
}
