package analytics

import (
	"fmt"
	"time"

	"clinic/internal/locale"
)

// Labeler renders the display label of a bucket.
type Labeler interface {
	Label(b Bucket) string
}

// LocaleLabeler renders labels with the month abbreviations of a locale:
//
//	day:   15-06-2024
//	week:  03, Jun 24 - 09, Jun 24
//	month: Jun 2024 (capitalized)
type LocaleLabeler struct {
	Locale string
}

func (l LocaleLabeler) Label(b Bucket) string {
	switch b.Granularity {
	case Day:
		return b.Start.Format("02-01-2006")
	case Week:
		return l.short(b.Start) + " - " + l.short(b.End)
	case Month:
		return locale.Title(l.Locale, fmt.Sprintf("%s %d", locale.MonthAbbrev(l.Locale, b.Start.Month()), b.Start.Year()))
	default:
		return b.Start.Format(time.DateOnly)
	}
}

// short renders "dd, MMM yy".
func (l LocaleLabeler) short(t time.Time) string {
	return fmt.Sprintf("%02d, %s %02d", t.Day(), locale.MonthAbbrev(l.Locale, t.Month()), t.Year()%100)
}
