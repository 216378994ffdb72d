// Package location resolves a place name, an IP address, or a manual
// lat/lon pair into a ResolvedLocation: coordinates, IANA timezone, and
// the provenance of how it was found.
package location

import (
	"encoding/json"
	"fmt"
)

// Source records how a ResolvedLocation was obtained.
type Source int

const (
	SourceCache Source = iota
	SourceNominatim
	SourceIPAPI
	SourceFallback
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "Cache"
	case SourceNominatim:
		return "Nominatim"
	case SourceIPAPI:
		return "IP"
	case SourceFallback:
		return "Built-in"
	case SourceManual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders a Source as its display name rather than its
// ordinal.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ResolvedLocation is a fully resolved location with coordinates,
// timezone, and provenance.
type ResolvedLocation struct {
	Name                string  `json:"name"`
	Lat                 float64 `json:"lat"`
	Lon                 float64 `json:"lon"`
	TZ                  string  `json:"tz"`
	Source              Source  `json:"source"`
	DisplayName         string  `json:"display_name,omitempty"`
	CountryCode         string  `json:"country_code,omitempty"`
	ResolverConfidence  float64 `json:"resolver_confidence"`
	Disambiguated       bool    `json:"disambiguated"`
	DisambiguationNote  string  `json:"disambiguation_note,omitempty"`
}

// DisplayLine renders a human-readable multi-line summary of the
// location, used by CLI output.
func (r ResolvedLocation) DisplayLine() string {
	countryPart := ""
	if r.CountryCode != "" {
		countryPart = fmt.Sprintf(" — %s", countryDisplayName(r.CountryCode))
	}
	coords := formatCoords(r.Lat, r.Lon)
	return fmt.Sprintf(
		"\U0001F4CD %s%s\n  \U0001F552 %s (Local Time)\n  \U0001F4D0 %s",
		r.Name, countryPart, r.TZ, coords,
	)
}

// ResolveOptions customizes city resolution.
type ResolveOptions struct {
	// Country is an ISO 3166-1 alpha-2 hint (e.g. "SA").
	Country string
	// TopK, if > 0, prints the top-K scored candidates to stderr before
	// resolving (debug mode).
	TopK int
}

// AmbiguousCandidate is one candidate shown to the user when a query
// can't be auto-disambiguated.
type AmbiguousCandidate struct {
	Name        string
	Country     string
	CountryName string
	Lat         float64
	Lon         float64
	TZ          string
	Score       float64
}

// NetworkError wraps a transport-level failure talking to a location
// provider.
type NetworkError struct{ Msg string }

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %s", e.Msg) }

// NotFoundError means no provider in the fallback chain could resolve
// the query.
type NotFoundError struct{ Query string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("location not found: %q", e.Query) }

// InvalidResponseError means a provider replied but its payload could
// not be parsed into the expected shape.
type InvalidResponseError struct{ Msg string }

func (e *InvalidResponseError) Error() string { return fmt.Sprintf("invalid API response: %s", e.Msg) }

// NoInputError means no location was specified by any means (city,
// auto, or manual lat/lon).
type NoInputError struct{}

func (e *NoInputError) Error() string {
	return "no location specified: use a city name, auto-detection, or explicit lat/lon"
}

// AmbiguousError means a city name query matched more than one strong,
// similarly-scored candidate and the resolver declined to guess.
type AmbiguousError struct {
	Query      string
	Candidates []AmbiguousCandidate
}

func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf("ambiguous city name: %q\n\n  Multiple matches found:\n", e.Query)
	for i, c := range e.Candidates {
		if i >= 5 {
			break
		}
		coords := formatCoords(c.Lat, c.Lon)
		msg += fmt.Sprintf("    %d. \U0001F4CD %s — %s\n       \U0001F552 %s (Local Time)\n       \U0001F4D0 %s\n",
			i+1, c.Name, c.CountryName, c.TZ, coords)
	}
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf("\n  Hint: try \"%s, %s\" or filter by country %s", e.Query, e.Candidates[0].Country, e.Candidates[0].Country)
	}
	return msg
}
