package recurrence

import (
	"testing"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

// 2026-11-02 понедельник
var (
	monday  = day(2026, time.November, 2)
	clockAt = fixedClock(time.Date(2026, time.October, 20, 9, 0, 0, 0, time.UTC))
)

func input(start, end time.Time, pattern model.RepeatPattern, weekdays ...int) Input {
	return Input{
		StartDate:       start,
		EndDate:         end,
		StartTime:       "10:00",
		EndTime:         "11:30",
		Weekdays:        weekdays,
		Pattern:         pattern,
		MinimumInterval: 15 * time.Minute,
	}
}

func dates(instances []model.ReservationInstance) []time.Time {
	out := make([]time.Time, 0, len(instances))
	for _, r := range instances {
		out = append(out, r.Date)
	}
	return out
}

func TestGenerate_Counts(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		pattern  model.RepeatPattern
		weekdays []int
		expected int
	}{
		{name: "weekly, one weekday, 14 days", days: 14, pattern: model.RepeatWeekly, weekdays: []int{2}, expected: 2},
		{name: "biweekly, one weekday, 28 days", days: 28, pattern: model.RepeatBiweekly, weekdays: []int{2}, expected: 2},
		{name: "weekly, one weekday, 28 days", days: 28, pattern: model.RepeatWeekly, weekdays: []int{2}, expected: 4},
		{name: "weekly, two weekdays, 14 days", days: 14, pattern: model.RepeatWeekly, weekdays: []int{0, 4}, expected: 4},
		{name: "weekly, every weekday, 14 days", days: 14, pattern: model.RepeatWeekly, weekdays: []int{0, 1, 2, 3, 4, 5, 6}, expected: 14},
		{name: "biweekly, every weekday, 14 days", days: 14, pattern: model.RepeatBiweekly, weekdays: []int{0, 1, 2, 3, 4, 5, 6}, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := monday.AddDate(0, 0, tt.days-1)
			result := Generate(input(monday, end, tt.pattern, tt.weekdays...), clockAt)

			require.True(t, result.Validation.Valid(), result.Validation.Error())
			assert.Len(t, result.Reservations, tt.expected)
		})
	}
}

func TestGenerate_Dates(t *testing.T) {
	result := Generate(input(monday, monday.AddDate(0, 0, 27), model.RepeatBiweekly, 2, 0), clockAt)

	require.True(t, result.Validation.Valid())
	assert.Equal(t, []time.Time{
		day(2026, time.November, 2),
		day(2026, time.November, 4),
		day(2026, time.November, 16),
		day(2026, time.November, 18),
	}, dates(result.Reservations))

	for _, r := range result.Reservations {
		assert.Equal(t, "10:00", r.StartTime)
		assert.Equal(t, "11:30", r.EndTime)
		assert.False(t, r.IsOverlapping)
		assert.Nil(t, r.ReservationPk)
		assert.Empty(t, r.Error)
	}
}

func TestGenerate_SortedAndInsideRange(t *testing.T) {
	patterns := []model.RepeatPattern{model.RepeatWeekly, model.RepeatBiweekly}
	weekdaySets := [][]int{{0}, {6}, {3, 1}, {6, 5, 4, 3, 2, 1, 0}}

	for _, pattern := range patterns {
		for _, weekdays := range weekdaySets {
			for length := 2; length <= 60; length += 7 {
				start := monday.AddDate(0, 0, length%5)
				end := start.AddDate(0, 0, length-1)

				result := Generate(input(start, end, pattern, weekdays...), clockAt)
				require.True(t, result.Validation.Valid())

				for i, r := range result.Reservations {
					assert.False(t, r.Date.Before(start), "date %s before range start", r.Date)
					assert.False(t, r.Date.After(end), "date %s after range end", r.Date)
					if i > 0 {
						assert.False(t, r.Date.Before(result.Reservations[i-1].Date), "output is not sorted")
					}
				}
			}
		}
	}
}

func TestGenerate_EndBeforeStart(t *testing.T) {
	result := Generate(input(monday, monday.AddDate(0, 0, -3), model.RepeatWeekly, 0), clockAt)

	assert.Empty(t, result.Reservations)
	assert.NotNil(t, result.Reservations)
	assert.False(t, result.Validation.Valid())
	assert.NotEmpty(t, result.Validation.FieldIssues("endingDate"))
}

func TestGenerate_SingleDayRange(t *testing.T) {
	result := Generate(input(monday, monday, model.RepeatWeekly, 0), clockAt)

	assert.Empty(t, result.Reservations)
	require.Len(t, result.Validation.FieldIssues("endingDate"), 1)
	assert.Equal(t, "date_after_start", result.Validation.FieldIssues("endingDate")[0].Code)
}

func TestGenerate_WeekdayOutsideFirstWindow(t *testing.T) {
	// Пн-Ср, пятница в окно не попадает
	result := Generate(input(monday, monday.AddDate(0, 0, 2), model.RepeatWeekly, 4), clockAt)

	require.True(t, result.Validation.Valid())
	assert.Empty(t, result.Reservations)
}

func TestGenerate_ShortRangeKeepsPartialWeek(t *testing.T) {
	result := Generate(input(monday, monday.AddDate(0, 0, 2), model.RepeatWeekly, 1, 4), clockAt)

	require.True(t, result.Validation.Valid())
	assert.Equal(t, []time.Time{day(2026, time.November, 3)}, dates(result.Reservations))
}

func TestGenerate_ClampsToToday(t *testing.T) {
	// Четверг 2026-11-05: понедельник 2-го уже прошёл
	now := fixedClock(time.Date(2026, time.November, 5, 15, 0, 0, 0, time.UTC))

	result := Generate(input(monday, monday.AddDate(0, 0, 13), model.RepeatWeekly, 0), now)

	require.True(t, result.Validation.Valid())
	assert.Equal(t, []time.Time{day(2026, time.November, 9)}, dates(result.Reservations))
}

func TestGenerate_ClampUsesUTCDay(t *testing.T) {
	// 01:00 пятницы 6-го по UTC+3 это ещё четверг 5-го по UTC
	moscow := time.FixedZone("MSK", 3*60*60)
	now := fixedClock(time.Date(2026, time.November, 6, 1, 0, 0, 0, moscow))

	result := Generate(input(monday, monday.AddDate(0, 0, 13), model.RepeatWeekly, 3), now)

	require.True(t, result.Validation.Valid())
	assert.Equal(t, []time.Time{
		day(2026, time.November, 5),
		day(2026, time.November, 12),
	}, dates(result.Reservations))
}

func TestGenerate_RangeFullyInPast(t *testing.T) {
	now := fixedClock(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC))

	result := Generate(input(monday, monday.AddDate(0, 0, 13), model.RepeatWeekly, 0, 1, 2), now)

	require.True(t, result.Validation.Valid())
	assert.Empty(t, result.Reservations)
}

func TestGenerate_EndDateIsInclusive(t *testing.T) {
	// Последний день диапазона - понедельник через две недели
	result := Generate(input(monday, monday.AddDate(0, 0, 14), model.RepeatWeekly, 0), clockAt)

	require.True(t, result.Validation.Valid())
	assert.Equal(t, []time.Time{
		day(2026, time.November, 2),
		day(2026, time.November, 9),
		day(2026, time.November, 16),
	}, dates(result.Reservations))
}

func TestGenerate_IgnoresInputTimezone(t *testing.T) {
	helsinki := time.FixedZone("EET", 2*60*60)
	start := time.Date(2026, time.November, 2, 0, 30, 0, 0, helsinki)
	end := time.Date(2026, time.November, 8, 23, 30, 0, 0, helsinki)

	result := Generate(input(start, end, model.RepeatWeekly, 0, 6), clockAt)

	require.True(t, result.Validation.Valid())
	assert.Equal(t, []time.Time{
		day(2026, time.November, 2),
		day(2026, time.November, 8),
	}, dates(result.Reservations))
}

func TestGenerateDirect_DegenerateRange(t *testing.T) {
	now := time.Date(2026, time.October, 20, 9, 0, 0, 0, time.UTC)

	assert.Empty(t, generate(input(monday, monday.AddDate(0, 0, -1), model.RepeatWeekly, 0), now))
	assert.Len(t, generate(input(monday, monday, model.RepeatWeekly, 0), now), 1)
	assert.Empty(t, generate(input(monday, monday, model.RepeatWeekly, 1), now))
	assert.Empty(t, generate(input(monday, monday.AddDate(0, 0, 7), model.RepeatPattern("daily"), 0), now))
}

func TestSeriesMetadata(t *testing.T) {
	in := input(monday, monday.AddDate(0, 0, 27), model.RepeatBiweekly, 2, 4)

	meta := SeriesMetadata(in, 42, "Floorball", "Tuesday team")

	assert.Equal(t, int64(42), meta.ReservationUnitID)
	assert.Equal(t, "Floorball", meta.Name)
	assert.Equal(t, 14, meta.RecurrenceInDays)
	assert.Equal(t, []int{2, 4}, meta.Weekdays)
	assert.Equal(t, monday, meta.BeginDate)
	assert.Equal(t, day(2026, time.November, 29), meta.EndDate)
	assert.Equal(t, "10:00", meta.BeginTime)
	assert.Equal(t, "11:30", meta.EndTime)
}
