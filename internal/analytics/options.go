package analytics

import (
	"time"

	"clinic/internal/locale"
)

type options struct {
	weekStart time.Weekday
	locale    string
	labeler   Labeler
}

// Option tunes bucketing and labeling.
type Option func(*options)

// WithWeekStart sets the first day of week buckets (default Monday).
func WithWeekStart(d time.Weekday) Option {
	return func(o *options) { o.weekStart = d }
}

// WithLocale selects the month abbreviations used in labels (default "en").
func WithLocale(tag string) Option {
	return func(o *options) { o.locale = locale.Normalize(tag) }
}

// WithLabeler replaces the default label renderer.
func WithLabeler(l Labeler) Option {
	return func(o *options) { o.labeler = l }
}

func buildOptions(opts []Option) options {
	o := options{weekStart: time.Monday, locale: locale.Default}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.labeler == nil {
		o.labeler = LocaleLabeler{Locale: o.locale}
	}
	return o
}
