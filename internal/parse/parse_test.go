package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)

	testCases := []struct {
		name    string
		raw     string
		loc     *time.Location
		want    *time.Time
		wantErr bool
	}{
		{name: "empty", raw: "  ", want: nil},
		{
			name: "gateway layout in zone",
			raw:  "2026-03-01 07:30:00",
			loc:  bogota,
			want: ptrTime(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)),
		},
		{
			name: "gateway layout defaults to utc",
			raw:  "2026-03-01 07:30:00",
			want: ptrTime(time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)),
		},
		{
			name: "rfc3339 keeps its own offset",
			raw:  "2026-03-01T07:30:00+01:00",
			loc:  bogota,
			want: ptrTime(time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)),
		},
		{name: "garbage", raw: "yesterday", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Timestamp(tc.raw, tc.loc)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := Location("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Location("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestHours(t *testing.T) {
	d, err := Hours("")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	d, err = Hours("6")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, d)

	for _, bad := range []string{"0", "-3", "abc", "721"} {
		_, err := Hours(bad)
		assert.Error(t, err, bad)
	}
}

func TestBoolAndID(t *testing.T) {
	b, err := Bool("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = Bool("false")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.False(t, *b)

	_, err = Bool("maybe")
	assert.Error(t, err)

	id, err := ID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, bad := range []string{"", "0", "-1", "x"} {
		_, err := ID(bad)
		assert.Error(t, err, bad)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
