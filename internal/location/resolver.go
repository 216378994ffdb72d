package location

import (
	"context"
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// memoSize bounds the resolver's in-process result cache. It is small
// since its job is to save a disk round-trip (or a network call) for
// the handful of queries a single process resolves repeatedly, not to
// replace the on-disk Cache's 30-day persistence.
const memoSize = 128

// Resolver orchestrates the location fallback pipeline:
//
//	city flow: in-process memo -> on-disk cache -> Nominatim (with disambiguation) -> simplified query -> built-in dataset -> error
//	auto flow: IP API -> most recently cached location -> error
type Resolver struct {
	cache   *Cache
	memo    *lru.Cache[string, ResolvedLocation]
	offline bool
}

// NewResolver builds a resolver backed by the default on-disk cache.
func NewResolver() *Resolver {
	return NewResolverWithCache(LoadCache())
}

// NewResolverWithCache builds a resolver over a specific cache
// (for tests, or a configured cache path).
func NewResolverWithCache(cache *Cache) *Resolver {
	memo, _ := lru.New[string, ResolvedLocation](memoSize)
	return &Resolver{cache: cache, memo: memo}
}

// memoKey folds the query and country hint into one lookup key; the
// same city text can resolve differently depending on the hint.
func memoKey(query, countryHint string) string {
	return strings.ToLower(query) + "|" + strings.ToUpper(countryHint)
}

// SetOffline toggles network calls off, restricting resolution to the
// cache and the built-in dataset.
func (r *Resolver) SetOffline(offline bool) { r.offline = offline }

// ResolveCity resolves a city name through the full fallback chain.
func (r *Resolver) ResolveCity(ctx context.Context, query string) (ResolvedLocation, error) {
	return r.ResolveCityWithOptions(ctx, query, ResolveOptions{})
}

// ResolveCityWithOptions resolves a city name with an optional country
// hint and top-K debug listing.
func (r *Resolver) ResolveCityWithOptions(ctx context.Context, query string, opts ResolveOptions) (ResolvedLocation, error) {
	observer := observability.Observer()
	ctx, span := observer.CreateSpan(ctx, "location.ResolveCity")
	defer span.End()
	span.SetAttributes(attribute.String("location.query", query))

	cityQuery, parsedCountry := parseQueryWithHint(query)
	countryHint := opts.Country
	if countryHint == "" {
		countryHint = parsedCountry
	}

	mk := memoKey(query, countryHint)
	if loc, ok := r.memo.Get(mk); ok {
		return loc, nil
	}

	if countryHint == "" {
		if loc, ok := r.cache.Get(cityQuery); ok {
			r.memo.Add(mk, loc)
			return loc, nil
		}
	}

	if !r.offline {
		if opts.TopK > 0 {
			if candidates, err := NominatimResolveCandidates(ctx, cityQuery, countryHint, opts.TopK); err == nil {
				fmt.Fprintf(os.Stderr, "  Top-%d candidates for %q:\n", opts.TopK, query)
				for i, c := range candidates {
					if i >= opts.TopK {
						break
					}
					fmt.Fprintf(os.Stderr, "    %d. %s [%s] score=%.3f (importance=%.3f, type=%s/%s)\n",
						i+1, c.DisplayName, c.CountryCode, c.Score, c.Importance, c.PlaceClass, c.PlaceType)
				}
			} else {
				fmt.Fprintf(os.Stderr, "  Warning: --topk failed: %v\n", err)
			}
		}

		loc, err := NominatimResolveWithOptions(ctx, cityQuery, countryHint)
		switch e := err.(type) {
		case nil:
			r.cache.PutWithKey(query, loc)
			r.memo.Add(mk, loc)
			return loc, nil
		case *AmbiguousError:
			if builtin, ok := builtinLookupWithCountry(cityQuery, countryHint); ok {
				builtin.Disambiguated = true
				builtin.DisambiguationNote = "Nominatim returned ambiguous results; used built-in dataset for " +
					builtin.Name + " (" + orDash(builtin.CountryCode) + ")"
				r.cache.PutWithKey(query, builtin)
				r.memo.Add(mk, builtin)
				return builtin, nil
			}
			if candidates, cerr := NominatimResolveCandidates(ctx, cityQuery, "", 5); cerr == nil {
				amb := make([]AmbiguousCandidate, 0, len(candidates))
				for _, c := range candidates {
					amb = append(amb, AmbiguousCandidate{
						Name: c.DisplayName, Country: c.CountryCode,
						CountryName: countryDisplayName(c.CountryCode),
						Lat: c.Lat, Lon: c.Lon, TZ: tzFromCoords(c.Lat, c.Lon), Score: c.Score,
					})
				}
				return ResolvedLocation{}, &AmbiguousError{Query: query, Candidates: amb}
			}
			return ResolvedLocation{}, e
		default:
			// fall through to the next attempt
		}

		simplified := simplifyQuery(cityQuery)
		if simplified != strings.ToLower(cityQuery) {
			if loc, err := NominatimResolveWithOptions(ctx, simplified, countryHint); err == nil {
				r.cache.PutWithKey(query, loc)
				r.memo.Add(mk, loc)
				return loc, nil
			}
		}
	}

	if loc, ok := builtinLookupWithCountry(cityQuery, countryHint); ok {
		r.memo.Add(mk, loc)
		return loc, nil
	}

	return ResolvedLocation{}, &NotFoundError{Query: query}
}

// ResolveAuto auto-detects location via IP geolocation, falling back
// to the most recently cached location when offline or when IP
// lookup fails.
func (r *Resolver) ResolveAuto(ctx context.Context) (ResolvedLocation, error) {
	observer := observability.Observer()
	ctx, span := observer.CreateSpan(ctx, "location.ResolveAuto")
	defer span.End()

	if !r.offline {
		if loc, err := IPGeolocate(ctx); err == nil {
			r.cache.Put(loc)
			return loc, nil
		}
	}

	if loc, ok := r.cache.MostRecent(); ok {
		return loc, nil
	}

	return ResolvedLocation{}, &NetworkError{Msg: "could not auto-detect location; provide a city or coordinates instead"}
}

// FromManual builds a ResolvedLocation from explicit lat/lon input,
// defaulting to UTC when no timezone override is given.
func FromManual(lat, lon float64, tzOverride string) ResolvedLocation {
	tz := tzOverride
	if tz == "" {
		tz = "UTC"
	}
	return ResolvedLocation{
		Name: formatCoords(lat, lon), Lat: lat, Lon: lon, TZ: tz,
		Source: SourceManual, ResolverConfidence: 1.0,
	}
}

func orDash(s string) string {
	if s == "" {
		return "??"
	}
	return s
}

// parseQueryWithHint splits "Medina, Saudi Arabia" into ("Medina",
// "SA"). A two-letter alphabetic suffix is treated as an ISO code
// directly; otherwise it's matched against countryNameToHint. An
// unrecognized suffix is assumed to be part of a multi-word city name
// and the whole query is returned unsplit.
func parseQueryWithHint(query string) (string, string) {
	parts := strings.SplitN(query, ",", 2)
	if len(parts) != 2 {
		return query, ""
	}
	city := strings.TrimSpace(parts[0])
	hintRaw := strings.TrimSpace(parts[1])

	if len(hintRaw) == 2 && isASCIIAlpha(hintRaw) {
		return city, strings.ToUpper(hintRaw)
	}
	if code := countryNameToHint(hintRaw); code != "" {
		return city, code
	}
	return query, ""
}

func isASCIIAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// countryNameToHint maps common country names/abbreviations (including
// colloquial forms Nominatim's own display names don't use) to ISO
// codes, for parsing "city, country" queries.
func countryNameToHint(name string) string {
	n := strings.ToLower(name)
	switch n {
	case "saudi arabia", "saudi", "ksa":
		return "SA"
	case "united states", "usa", "us", "america":
		return "US"
	case "united kingdom", "uk", "britain", "england":
		return "GB"
	case "france", "french":
		return "FR"
	case "germany":
		return "DE"
	case "italy", "italia":
		return "IT"
	case "spain", "españa":
		return "ES"
	case "russia":
		return "RU"
	case "china":
		return "CN"
	case "japan":
		return "JP"
	case "india":
		return "IN"
	case "pakistan":
		return "PK"
	case "iran":
		return "IR"
	case "iraq":
		return "IQ"
	case "turkey", "türkiye":
		return "TR"
	case "egypt":
		return "EG"
	case "israel":
		return "IL"
	case "palestine":
		return "PS"
	case "syria":
		return "SY"
	case "jordan":
		return "JO"
	case "lebanon":
		return "LB"
	case "uae", "emirates":
		return "AE"
	case "qatar":
		return "QA"
	case "kuwait":
		return "KW"
	case "oman":
		return "OM"
	case "yemen":
		return "YE"
	case "nigeria":
		return "NG"
	case "kenya":
		return "KE"
	case "south africa":
		return "ZA"
	case "morocco":
		return "MA"
	case "australia":
		return "AU"
	case "new zealand":
		return "NZ"
	case "indonesia":
		return "ID"
	case "malaysia":
		return "MY"
	case "canada":
		return "CA"
	case "mexico":
		return "MX"
	case "brazil", "brasil":
		return "BR"
	case "argentina":
		return "AR"
	case "colombia":
		return "CO"
	case "peru":
		return "PE"
	case "chile":
		return "CL"
	case "sweden", "sverige":
		return "SE"
	case "norway", "norge":
		return "NO"
	case "denmark":
		return "DK"
	case "finland":
		return "FI"
	case "iceland":
		return "IS"
	case "netherlands":
		return "NL"
	case "belgium":
		return "BE"
	case "switzerland":
		return "CH"
	case "austria":
		return "AT"
	case "portugal":
		return "PT"
	case "greece":
		return "GR"
	case "poland":
		return "PL"
	default:
		return ""
	}
}

var diacriticFolds = strings.NewReplacer(
	"ø", "o", "å", "a", "ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	"é", "e", "è", "e", "ê", "e", "ñ", "n", "ã", "a", "õ", "o", "ç", "c",
)

// simplifyQuery lowercases, folds common diacritics, and collapses
// whitespace. Used as a fallback retry when the first Nominatim lookup
// misses (e.g. a non-ASCII city name typed without its accents).
func simplifyQuery(q string) string {
	folded := diacriticFolds.Replace(strings.ToLower(q))
	return strings.Join(strings.Fields(folded), " ")
}
