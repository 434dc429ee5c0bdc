package triggers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

// TestCronBoundaryEvery15Minutes checks that a trigger created at 10:07 on a
// */15 schedule next fires at 10:15, then 10:30 after that.
func TestCronBoundaryEvery15Minutes(t *testing.T) {
	loc := mustLoc(t, "Asia/Shanghai") // UTC+8
	created := time.Date(2024, 6, 1, 10, 7, 0, 0, loc)

	first, err := nextRunTime("*/15 * * * *", created, loc)
	require.NoError(t, err)
	assert.True(t, first.Equal(time.Date(2024, 6, 1, 10, 15, 0, 0, loc)), "got %v", first)

	second, err := nextRunTime("*/15 * * * *", first, loc)
	require.NoError(t, err)
	assert.True(t, second.Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, loc)), "got %v", second)
}

// TestCronCatchUpFalseSkipsMissedFires models a 90-minute outage from 10:10
// to 11:40: with catch_up=false the scheduler recomputes from "now" on
// restart, producing a single fire at 11:45 rather than replaying 10:15,
// 10:30, etc.
func TestCronCatchUpFalseSkipsMissedFires(t *testing.T) {
	loc := mustLoc(t, "Asia/Shanghai")
	restartedAt := time.Date(2024, 6, 1, 11, 40, 0, 0, loc)

	next, err := nextRunTime("*/15 * * * *", restartedAt, loc)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2024, 6, 1, 11, 45, 0, 0, loc)), "got %v", next)
}

func TestParseCronFieldOperators(t *testing.T) {
	cases := []struct {
		field      string
		min, max   int
		wantMember []int
		wantAbsent []int
	}{
		{"*", 0, 5, []int{0, 1, 5}, nil},
		{"*/2", 0, 6, []int{0, 2, 4, 6}, []int{1, 3, 5}},
		{"1,3,5", 0, 6, []int{1, 3, 5}, []int{0, 2, 4}},
		{"1-3", 0, 6, []int{1, 2, 3}, []int{0, 4}},
		{"0-10/5", 0, 23, []int{0, 5, 10}, []int{1, 6, 11}},
	}
	for _, c := range cases {
		values, err := parseCronField(c.field, c.min, c.max)
		require.NoError(t, err, c.field)
		for _, v := range c.wantMember {
			assert.True(t, values[v], "%s should include %d", c.field, v)
		}
		for _, v := range c.wantAbsent {
			assert.False(t, values[v], "%s should exclude %d", c.field, v)
		}
	}
}

func TestParseCronRejectsWrongFieldCount(t *testing.T) {
	_, err := parseCron("* * * *")
	assert.Error(t, err)
}

func TestWeekdayMondayZero(t *testing.T) {
	assert.Equal(t, 0, weekdayMondayZero(time.Monday))
	assert.Equal(t, 6, weekdayMondayZero(time.Sunday))
}
