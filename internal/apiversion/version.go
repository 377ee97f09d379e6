// Package apiversion implements the API-version visibility window for links.
//
// Routes kept around for backward compatibility carry a retirement marker of
// the form ":maxversion(YYYY-MM-DD)" on a path parameter. A caller pins
// itself to an API version by sending the "x-api-version" header; a caller
// without the header asks for the current version and, by definition, never
// sees retired routes.
package apiversion

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Header is the request header carrying the caller's pinned API version.
const Header = "x-api-version"

// DateFormat is the wire format for API version dates.
const DateFormat = "2006-01-02"

// markerPattern matches a retirement marker embedded in a path template.
// The capture group holds the marker date.
var markerPattern = regexp.MustCompile(`:maxversion\((\d{4}-\d{2}-\d{2})\)`)

// ErrBadRequestedVersion reports a malformed version header value. This is a
// caller error and must be rejected at the request boundary with a client
// error status; it never participates in link resolution.
var ErrBadRequestedVersion = errors.New("malformed x-api-version value, want YYYY-MM-DD")

// ParseRequested parses the raw version header value. An empty value means
// the caller wants the current version and yields a nil time.
func ParseRequested(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(DateFormat, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadRequestedVersion, value)
	}
	return &d, nil
}

// FilterHref applies the retirement window to a link href.
//
// Without a marker the link is always visible and the href is returned
// untouched. With a marker the link is visible only when the caller pinned a
// version strictly earlier than the marker date; the marker substring is
// stripped from the returned href so callers never see internal version
// syntax. A nil requested version (current) never sees a marked route.
//
// A marker whose date does not parse is a configuration error: FilterHref
// returns it to the caller, which is expected to log and drop the link
// rather than emit it.
func FilterHref(href string, requested *time.Time) (string, bool, error) {
	loc := markerPattern.FindStringSubmatchIndex(href)
	if loc == nil {
		return href, true, nil
	}

	raw := href[loc[2]:loc[3]]
	max, err := time.Parse(DateFormat, raw)
	if err != nil {
		return "", false, fmt.Errorf("malformed maxversion marker date %q in %q: %w", raw, href, err)
	}

	if requested == nil || !requested.Before(max) {
		return "", false, nil
	}
	return href[:loc[0]] + href[loc[1]:], true, nil
}

// ValidateMarkers checks every retirement marker in a template for a
// parseable date. Used by manifest validation so that bad markers surface at
// build time, not on first request.
func ValidateMarkers(template string) error {
	for _, m := range markerPattern.FindAllStringSubmatch(template, -1) {
		if _, err := time.Parse(DateFormat, m[1]); err != nil {
			return fmt.Errorf("malformed maxversion marker date %q in %q", m[1], template)
		}
	}
	return nil
}
