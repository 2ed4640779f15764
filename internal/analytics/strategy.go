package analytics

import (
	"fmt"
	"time"
)

// BucketStrategy splits a normalized range into buckets of one granularity.
// start must be a start of day and end an end of day, start <= end.
type BucketStrategy interface {
	Split(start, end time.Time, weekStart time.Weekday) []Bucket
}

// DailyStrategy emits one bucket per calendar day.
type DailyStrategy struct{}

func (DailyStrategy) Split(start, end time.Time, _ time.Weekday) []Bucket {
	var out []Bucket
	for d := start; !d.After(end); d = nextDay(d) {
		out = append(out, Bucket{Start: d, End: EndOfDay(d), Granularity: Day})
	}
	return out
}

// WeeklyStrategy emits calendar weeks, the first and last clipped to the range.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Split(start, end time.Time, weekStart time.Weekday) []Bucket {
	var out []Bucket
	for cursor := start; !cursor.After(end); {
		offset := (int(cursor.Weekday()) - int(weekStart) + 7) % 7
		y, m, d := cursor.Date()
		bucketEnd := DayEnd(y, m, d+6-offset, cursor.Location())
		if bucketEnd.After(end) {
			bucketEnd = end
		}
		out = append(out, Bucket{Start: cursor, End: bucketEnd, Granularity: Week})
		cursor = nextDay(bucketEnd)
	}
	return out
}

// MonthlyStrategy emits calendar months, the first and last clipped to the range.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Split(start, end time.Time, _ time.Weekday) []Bucket {
	var out []Bucket
	for cursor := start; !cursor.After(end); {
		y, m, _ := cursor.Date()
		// day 0 of the next month is the last day of this one
		bucketEnd := DayEnd(y, m+1, 0, cursor.Location())
		if bucketEnd.After(end) {
			bucketEnd = end
		}
		out = append(out, Bucket{Start: cursor, End: bucketEnd, Granularity: Month})
		cursor = nextDay(bucketEnd)
	}
	return out
}

var bucketStrategies = map[Granularity]BucketStrategy{
	Day:   DailyStrategy{},
	Week:  WeeklyStrategy{},
	Month: MonthlyStrategy{},
}

// StrategyFor returns the splitter for a granularity.
func StrategyFor(g Granularity) (BucketStrategy, error) {
	s, ok := bucketStrategies[g]
	if !ok {
		return nil, fmt.Errorf("unknown granularity: %s", g)
	}
	return s, nil
}
