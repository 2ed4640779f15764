// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// reporting ranges from query strings and record fields from JSON or
// form-encoded bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clinic/internal/analytics"
	"clinic/internal/core"
)

// maxBodyBytes bounds record payloads.
const maxBodyBytes = 64 << 10

// ErrBadParam marks a malformed query or body parameter.
var ErrBadParam = errors.New("invalid parameter")

// RangeParams holds the reporting range and locale taken from a query string.
type RangeParams struct {
	From   time.Time
	To     time.Time
	Locale string
}

// ParseRangeParams reads from/to as YYYY-MM-DD dates in loc. A missing bound
// defaults to the edge of the calendar month containing the other bound, or
// of the current month when both are missing. from after to is not rejected
// here; the report builder owns that check.
func ParseRangeParams(query url.Values, now time.Time, loc *time.Location) (RangeParams, error) {
	if loc == nil {
		loc = time.Local
	}
	params := RangeParams{Locale: strings.TrimSpace(query.Get("locale"))}

	var err error
	fromStr := strings.TrimSpace(query.Get("from"))
	toStr := strings.TrimSpace(query.Get("to"))

	if fromStr != "" {
		if params.From, err = parseDate(fromStr, loc); err != nil {
			return RangeParams{}, fmt.Errorf("%w: from %q", ErrBadParam, fromStr)
		}
	}
	if toStr != "" {
		if params.To, err = parseDate(toStr, loc); err != nil {
			return RangeParams{}, fmt.Errorf("%w: to %q", ErrBadParam, toStr)
		}
	}

	switch {
	case fromStr == "" && toStr == "":
		params.From, params.To = monthBounds(now.In(loc))
	case fromStr == "":
		params.From, _ = monthBounds(params.To)
	case toStr == "":
		_, params.To = monthBounds(params.From)
	}
	return params, nil
}

// parseDate reads a YYYY-MM-DD date as the start of that day in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, day := d.Date()
	return analytics.DayStart(y, m, day, loc), nil
}

// monthBounds returns the starts of the first and last day of t's month.
func monthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	return analytics.DayStart(y, m, 1, t.Location()), analytics.DayStart(y, m+1, 0, t.Location())
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		// numbers stay as text so amounts keep every digit
		dec := json.NewDecoder(bytes.NewReader(p.body))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: malformed JSON body", ErrBadParam)
			return p.err
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: trailing data after JSON body", ErrBadParam)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = fmt.Errorf("%w: malformed form body", ErrBadParam)
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Amount parses key as a positive amount rounded to cents.
func (p *RequestBodyParser) Amount(key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Time parses key as RFC3339 or as a YYYY-MM-DD date at midnight in loc.
// An empty value yields def.
func (p *RequestBodyParser) Time(key string, loc *time.Location, def time.Time) (time.Time, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := parseDate(v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", ErrBadParam, key, v)
	}
	return t, nil
}

// UUID parses key as a UUID.
func (p *RequestBodyParser) UUID(key string) (uuid.UUID, error) {
	v := p.Get(key)
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q", ErrBadParam, key, v)
	}
	return id, nil
}

// Bool parses key with strconv rules, treating "on" (HTML checkbox) as true.
func (p *RequestBodyParser) Bool(key string) bool {
	v := strings.ToLower(p.Get(key))
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		if strings.ContainsAny(val.String(), "eE") {
			if d, err := decimal.NewFromString(val.String()); err == nil {
				return d.String()
			}
		}
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// PathUUID parses the {id} path wildcard.
func PathUUID(r *http.Request) (uuid.UUID, error) {
	v := r.PathValue("id")
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id %q", ErrBadParam, v)
	}
	return id, nil
}
