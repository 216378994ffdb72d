package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// builtinCity is one entry in the offline fallback dataset.
type builtinCity struct {
	names       []string // canonical name first, then aliases
	lat, lon    float64
	tz          string
	countryCode string
}

// builtinCities is the offline last-resort dataset: enough cities to
// keep the resolver useful with no network access at all.
var builtinCities = []builtinCity{
	{[]string{"mecca", "makkah", "mekka"}, 21.4225, 39.8262, "Asia/Riyadh", "SA"},
	{[]string{"medina", "madinah", "al-madinah"}, 24.4686, 39.6142, "Asia/Riyadh", "SA"},
	{[]string{"stockholm", "stokholm"}, 59.3293, 18.0686, "Europe/Stockholm", "SE"},
	{[]string{"tromso", "tromsø", "tromsoe"}, 69.6492, 18.9553, "Europe/Oslo", "NO"},
	{[]string{"svalbard", "longyearbyen"}, 78.2232, 15.6267, "Arctic/Longyearbyen", "NO"},
	{[]string{"new york", "newyork", "nyc"}, 40.7128, -74.0060, "America/New_York", "US"},
	{[]string{"tokyo"}, 35.6762, 139.6503, "Asia/Tokyo", "JP"},
	{[]string{"london"}, 51.5074, -0.1278, "Europe/London", "GB"},
	{[]string{"cairo", "al-qahirah"}, 30.0444, 31.2357, "Africa/Cairo", "EG"},
	{[]string{"istanbul"}, 41.0082, 28.9784, "Europe/Istanbul", "TR"},
	{[]string{"jakarta"}, -6.2088, 106.8456, "Asia/Jakarta", "ID"},
	{[]string{"kuala lumpur", "kl"}, 3.1390, 101.6869, "Asia/Kuala_Lumpur", "MY"},
	{[]string{"riyadh"}, 24.7136, 46.6753, "Asia/Riyadh", "SA"},
	{[]string{"dubai"}, 25.2048, 55.2708, "Asia/Dubai", "AE"},
	{[]string{"oslo"}, 59.9139, 10.7522, "Europe/Oslo", "NO"},
	{[]string{"paris"}, 48.8566, 2.3522, "Europe/Paris", "FR"},
	{[]string{"berlin"}, 52.5200, 13.4050, "Europe/Berlin", "DE"},
	{[]string{"moscow", "moskva"}, 55.7558, 37.6173, "Europe/Moscow", "RU"},
	{[]string{"sydney"}, -33.8688, 151.2093, "Australia/Sydney", "AU"},
	{[]string{"los angeles", "la"}, 34.0522, -118.2437, "America/Los_Angeles", "US"},
	{[]string{"dhaka", "dacca"}, 23.8103, 90.4125, "Asia/Dhaka", "BD"},
	{[]string{"casablanca", "dar el beida"}, 33.5731, -7.5898, "Africa/Casablanca", "MA"},
	{[]string{"mumbai", "bombay"}, 19.0760, 72.8777, "Asia/Kolkata", "IN"},
	{[]string{"delhi", "new delhi"}, 28.6139, 77.2090, "Asia/Kolkata", "IN"},
	{[]string{"karachi"}, 24.8607, 67.0011, "Asia/Karachi", "PK"},
	{[]string{"tehran"}, 35.6892, 51.3890, "Asia/Tehran", "IR"},
	{[]string{"baghdad"}, 33.3152, 44.3661, "Asia/Baghdad", "IQ"},
	{[]string{"jerusalem", "al-quds"}, 31.7683, 35.2137, "Asia/Jerusalem", "IL"},
	{[]string{"nairobi"}, -1.2921, 36.8219, "Africa/Nairobi", "KE"},
	{[]string{"lagos"}, 6.5244, 3.3792, "Africa/Lagos", "NG"},
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	m, n := len(ar), len(br)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// builtinLookup searches the offline dataset with exact, substring,
// then fuzzy (edit distance <= 2) matching, in that order.
func builtinLookup(query string) (ResolvedLocation, bool) {
	return builtinLookupWithCountry(query, "")
}

// builtinLookupWithCountry is builtinLookup restricted to a country
// code, when non-empty.
func builtinLookupWithCountry(query, country string) (ResolvedLocation, bool) {
	q := strings.ToLower(query)
	countryFilter := strings.ToUpper(country)

	var candidates []*builtinCity
	for i := range builtinCities {
		c := &builtinCities[i]
		if countryFilter == "" || c.countryCode == countryFilter {
			candidates = append(candidates, c)
		}
	}

	for _, c := range candidates {
		for _, name := range c.names {
			if name == q {
				return builtinToResolved(c), true
			}
		}
	}

	for _, c := range candidates {
		for _, name := range c.names {
			if strings.Contains(name, q) || strings.Contains(q, name) {
				return builtinToResolved(c), true
			}
		}
	}

	var best *builtinCity
	bestDist := -1
	for _, c := range candidates {
		for _, name := range c.names {
			dist := editDistance(q, name)
			if dist <= 2 && (best == nil || dist < bestDist) {
				best, bestDist = c, dist
			}
		}
	}
	if best == nil {
		return ResolvedLocation{}, false
	}
	return builtinToResolved(best), true
}

func builtinToResolved(c *builtinCity) ResolvedLocation {
	return ResolvedLocation{
		Name:               c.names[0],
		Lat:                c.lat,
		Lon:                c.lon,
		TZ:                 c.tz,
		Source:             SourceFallback,
		CountryCode:        c.countryCode,
		ResolverConfidence: 0.95,
	}
}

// CityInfo is one entry in the public city-list API (autocomplete).
type CityInfo struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// BuiltinCityList returns the full offline dataset for autocomplete or
// the `/api/cities` endpoint.
func BuiltinCityList() []CityInfo {
	out := make([]CityInfo, 0, len(builtinCities))
	for _, c := range builtinCities {
		out = append(out, CityInfo{Name: c.names[0], Country: c.countryCode, Lat: c.lat, Lon: c.lon})
	}
	return out
}

// ─── Nominatim provider ─────────────────────────────────────────────

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	PlaceType   string  `json:"type"`
	PlaceClass  string  `json:"class"`
}

// NominatimCandidate is one scored Nominatim search result.
type NominatimCandidate struct {
	Name        string
	DisplayName string
	Lat, Lon    float64
	Importance  float64
	PlaceType   string
	PlaceClass  string
	CountryCode string
	Score       float64
}

const (
	wImportance = 0.40
	wType       = 0.25
	wName       = 0.20
	wCountry    = 0.15

	// disambiguationThreshold is the minimum score gap between the top
	// two candidates required to auto-disambiguate rather than ask.
	disambiguationThreshold = 0.10
)

// wellKnownCities pins a handful of single-token queries to their
// expected country, so Nominatim's own ranking doesn't drown out the
// historically/religiously significant match (Medina vs. a town of the
// same name elsewhere).
var wellKnownCities = map[string]string{
	"medina": "SA", "madinah": "SA", "mecca": "SA", "makkah": "SA",
	"jeddah": "SA", "gaza": "PS", "jerusalem": "IL", "bethlehem": "PS",
	"damascus": "SY", "baghdad": "IQ", "cairo": "EG", "istanbul": "TR",
	"paris": "FR", "london": "GB", "berlin": "DE", "rome": "IT",
	"moscow": "RU", "tokyo": "JP", "beijing": "CN", "delhi": "IN",
	"mumbai": "IN", "karachi": "PK", "tehran": "IR", "riyadh": "SA",
	"dubai": "AE", "doha": "QA", "lima": "PE", "santiago": "CL",
	"bogota": "CO", "athens": "GR", "vienna": "AT", "lisbon": "PT",
	"nairobi": "KE", "lagos": "NG", "casablanca": "MA", "dhaka": "BD",
}

func typeRank(placeType, placeClass string) float64 {
	switch {
	case placeClass == "place" && placeType == "city":
		return 1.0
	case placeClass == "boundary" && placeType == "administrative":
		return 1.0
	case placeClass == "place" && placeType == "town":
		return 0.8
	case placeClass == "place" && placeType == "village":
		return 0.4
	case placeClass == "place" && placeType == "hamlet":
		return 0.2
	default:
		return 0.5
	}
}

func nameSimilarity(query, displayName string) float64 {
	q := strings.ToLower(query)
	firstComponent := strings.ToLower(strings.TrimSpace(strings.SplitN(displayName, ",", 2)[0]))
	switch {
	case firstComponent == q:
		return 1.0
	case strings.Contains(firstComponent, q) || strings.Contains(q, firstComponent):
		return 0.8
	default:
		if editDistance(q, firstComponent) <= 2 {
			return 0.6
		}
		return 0.3
	}
}

func extractCountryCode(displayName string) string {
	parts := strings.Split(displayName, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	return countryNameToCode(last)
}

// countryNameToCode maps a country's display name (as Nominatim renders
// it, in whatever language) to its ISO 3166-1 alpha-2 code.
func countryNameToCode(name string) string {
	n := strings.ToLower(name)
	switch n {
	case "saudi arabia", "المملكة العربية السعودية":
		return "SA"
	case "united states", "united states of america", "usa", "us":
		return "US"
	case "united kingdom", "uk", "great britain", "england":
		return "GB"
	case "france":
		return "FR"
	case "germany", "deutschland":
		return "DE"
	case "italy", "italia":
		return "IT"
	case "spain", "españa":
		return "ES"
	case "russia", "russian federation":
		return "RU"
	case "china", "people's republic of china":
		return "CN"
	case "japan", "日本":
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
	case "egypt", "مصر":
		return "EG"
	case "israel":
		return "IL"
	case "palestine", "palestinian territory":
		return "PS"
	case "syria", "syrian arab republic":
		return "SY"
	case "jordan":
		return "JO"
	case "lebanon":
		return "LB"
	case "united arab emirates", "uae":
		return "AE"
	case "qatar":
		return "QA"
	case "kuwait":
		return "KW"
	case "oman":
		return "OM"
	case "bahrain":
		return "BH"
	case "yemen":
		return "YE"
	case "nigeria":
		return "NG"
	case "kenya":
		return "KE"
	case "south africa":
		return "ZA"
	case "morocco", "maroc":
		return "MA"
	case "ethiopia":
		return "ET"
	case "tanzania":
		return "TZ"
	case "australia":
		return "AU"
	case "new zealand", "aotearoa":
		return "NZ"
	case "indonesia":
		return "ID"
	case "malaysia":
		return "MY"
	case "thailand":
		return "TH"
	case "vietnam", "viet nam":
		return "VN"
	case "philippines":
		return "PH"
	case "singapore":
		return "SG"
	case "south korea", "korea, republic of":
		return "KR"
	case "canada":
		return "CA"
	case "mexico", "méxico":
		return "MX"
	case "brazil", "brasil":
		return "BR"
	case "argentina":
		return "AR"
	case "colombia":
		return "CO"
	case "peru", "perú":
		return "PE"
	case "chile":
		return "CL"
	case "sweden", "sverige":
		return "SE"
	case "norway", "norge":
		return "NO"
	case "denmark", "danmark":
		return "DK"
	case "finland", "suomi":
		return "FI"
	case "iceland", "ísland":
		return "IS"
	case "netherlands", "nederland":
		return "NL"
	case "belgium", "belgique", "belgië":
		return "BE"
	case "switzerland", "schweiz", "suisse":
		return "CH"
	case "austria", "österreich":
		return "AT"
	case "portugal":
		return "PT"
	case "greece", "ελλάδα":
		return "GR"
	case "poland", "polska":
		return "PL"
	case "czech republic", "czechia", "česko":
		return "CZ"
	case "hungary", "magyarország":
		return "HU"
	case "romania", "românia":
		return "RO"
	case "bangladesh", "বাংলাদেশ":
		return "BD"
	case "sri lanka":
		return "LK"
	case "nepal":
		return "NP"
	case "afghanistan":
		return "AF"
	case "uzbekistan":
		return "UZ"
	case "kazakhstan":
		return "KZ"
	case "azerbaijan":
		return "AZ"
	case "georgia":
		return "GE"
	default:
		return ""
	}
}

// countryDisplayName is the reverse of countryNameToCode: an ISO
// 3166-1 alpha-2 code to its canonical English display name. Used by
// ResolvedLocation.DisplayLine and AmbiguousError to show a readable
// country name alongside a code.
//
// No equivalent function existed anywhere in the reference location
// subsystem despite being called from it. This table supplies a
// canonical English name for every code countryNameToCode/
// countryNameToHint can produce, keyed the other direction.
// CountryDisplayName exposes countryDisplayName to other packages (the
// solver façade uses it to label a resolved location's country).
func CountryDisplayName(code string) string { return countryDisplayName(code) }

func countryDisplayName(code string) string {
	names := map[string]string{
		"SA": "Saudi Arabia", "US": "United States", "GB": "United Kingdom",
		"FR": "France", "DE": "Germany", "IT": "Italy", "ES": "Spain",
		"RU": "Russia", "CN": "China", "JP": "Japan", "IN": "India",
		"PK": "Pakistan", "IR": "Iran", "IQ": "Iraq", "TR": "Turkey",
		"EG": "Egypt", "IL": "Israel", "PS": "Palestine", "SY": "Syria",
		"JO": "Jordan", "LB": "Lebanon", "AE": "United Arab Emirates",
		"QA": "Qatar", "KW": "Kuwait", "OM": "Oman", "BH": "Bahrain",
		"YE": "Yemen", "NG": "Nigeria", "KE": "Kenya", "ZA": "South Africa",
		"MA": "Morocco", "ET": "Ethiopia", "TZ": "Tanzania",
		"AU": "Australia", "NZ": "New Zealand", "ID": "Indonesia",
		"MY": "Malaysia", "TH": "Thailand", "VN": "Vietnam",
		"PH": "Philippines", "SG": "Singapore", "KR": "South Korea",
		"CA": "Canada", "MX": "Mexico", "BR": "Brazil", "AR": "Argentina",
		"CO": "Colombia", "PE": "Peru", "CL": "Chile", "SE": "Sweden",
		"NO": "Norway", "DK": "Denmark", "FI": "Finland", "IS": "Iceland",
		"NL": "Netherlands", "BE": "Belgium", "CH": "Switzerland",
		"AT": "Austria", "PT": "Portugal", "GR": "Greece", "PL": "Poland",
		"CZ": "Czechia", "HU": "Hungary", "RO": "Romania",
		"BD": "Bangladesh", "LK": "Sri Lanka", "NP": "Nepal",
		"AF": "Afghanistan", "UZ": "Uzbekistan", "KZ": "Kazakhstan",
		"AZ": "Azerbaijan", "GE": "Georgia",
	}
	if n, ok := names[strings.ToUpper(code)]; ok {
		return n
	}
	return code
}

// formatCoords renders a coordinate pair as "21.4225°N, 39.8262°E".
//
// Like countryDisplayName, this had no defining body in the reference
// location subsystem; the format follows the degree-plus-hemisphere
// convention its call sites' surrounding text (compass emoji, "Local
// Time" line) implies.
// FormatCoords exposes formatCoords to other packages (the solver
// façade uses it to render a resolved location's coordinates).
func FormatCoords(lat, lon float64) string { return formatCoords(lat, lon) }

func formatCoords(lat, lon float64) string {
	latHemi, lonHemi := "N", "E"
	if lat < 0 {
		latHemi = "S"
	}
	if lon < 0 {
		lonHemi = "W"
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", absF(lat), latHemi, absF(lon), lonHemi)
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func scoreCandidate(query string, r nominatimResult, countryHint string) NominatimCandidate {
	importance := r.Importance
	if importance == 0 {
		importance = 0.3
	}
	ptype, pclass := r.PlaceType, r.PlaceClass
	if ptype == "" {
		ptype = "unknown"
	}
	if pclass == "" {
		pclass = "unknown"
	}
	country := extractCountryCode(r.DisplayName)

	typeScore := typeRank(ptype, pclass)
	nameScore := nameSimilarity(query, r.DisplayName)

	qLower := strings.ToLower(query)
	countryScore := 0.5
	if countryHint != "" {
		if country == strings.ToUpper(countryHint) {
			countryScore = 1.0
		} else {
			countryScore = 0.0
		}
	} else if expected, known := wellKnownCities[qLower]; known {
		if country == expected {
			countryScore = 1.0
		} else {
			countryScore = 0.1
		}
	}

	score := wImportance*importance + wType*typeScore + wName*nameScore + wCountry*countryScore

	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)
	shortName := strings.TrimSpace(strings.SplitN(r.DisplayName, ",", 2)[0])
	if shortName == "" {
		shortName = query
	}

	return NominatimCandidate{
		Name: shortName, DisplayName: r.DisplayName, Lat: lat, Lon: lon,
		Importance: importance, PlaceType: ptype, PlaceClass: pclass,
		CountryCode: country, Score: score,
	}
}

var httpClient = &http.Client{Timeout: 3 * time.Second}

// NominatimResolveCandidates queries OpenStreetMap's Nominatim search
// API and returns scored, ranked candidates.
func NominatimResolveCandidates(ctx context.Context, query, countryHint string, limit int) ([]NominatimCandidate, error) {
	if limit < 3 {
		limit = 3
	}
	if limit > 10 {
		limit = 10
	}

	u := fmt.Sprintf(
		"https://nominatim.openstreetmap.org/search?q=%s&format=json&limit=%d&addressdetails=0",
		url.QueryEscape(query), limit,
	)
	if countryHint != "" {
		u += "&countrycodes=" + url.QueryEscape(countryHint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{Msg: err.Error()}
	}
	req.Header.Set("User-Agent", "waqt/1.0 (prayer-time-engine)")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &InvalidResponseError{Msg: err.Error()}
	}
	if len(results) == 0 {
		return nil, &NotFoundError{Query: query}
	}

	candidates := make([]NominatimCandidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, scoreCandidate(query, r, countryHint))
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	return candidates, nil
}

// NominatimResolve resolves a city name to a single best-guess
// location, returning an AmbiguousError if no confident winner exists.
func NominatimResolve(ctx context.Context, query string) (ResolvedLocation, error) {
	return NominatimResolveWithOptions(ctx, query, "")
}

// NominatimResolveWithOptions is NominatimResolve with an optional
// country hint.
func NominatimResolveWithOptions(ctx context.Context, query, countryHint string) (ResolvedLocation, error) {
	candidates, err := NominatimResolveCandidates(ctx, query, countryHint, 5)
	if err != nil {
		return ResolvedLocation{}, err
	}

	top := candidates[0]
	disambiguated := false
	note := ""

	if len(candidates) > 1 {
		gap := top.Score - candidates[1].Score

		if gap < disambiguationThreshold && countryHint == "" && top.CountryCode != candidates[1].CountryCode {
			amb := make([]AmbiguousCandidate, 0, min(len(candidates), 5))
			for i, c := range candidates {
				if i >= 5 {
					break
				}
				amb = append(amb, AmbiguousCandidate{
					Name: c.DisplayName, Country: c.CountryCode,
					CountryName: countryDisplayName(c.CountryCode),
					Lat: c.Lat, Lon: c.Lon, TZ: tzFromCoords(c.Lat, c.Lon), Score: c.Score,
				})
			}
			return ResolvedLocation{}, &AmbiguousError{Query: query, Candidates: amb}
		}

		if gap >= disambiguationThreshold && top.CountryCode != candidates[1].CountryCode {
			disambiguated = true
			note = fmt.Sprintf("Chose %s (%s) over %s (%s) — score gap %.2f",
				top.Name, top.CountryCode, candidates[1].Name, candidates[1].CountryCode, gap)
		}
	}

	return ResolvedLocation{
		Name: top.Name, Lat: top.Lat, Lon: top.Lon,
		TZ: tzFromCoords(top.Lat, top.Lon), Source: SourceNominatim,
		DisplayName: top.DisplayName, CountryCode: top.CountryCode,
		ResolverConfidence: minF(top.Score, 1.0),
		Disambiguated:      disambiguated, DisambiguationNote: note,
	}, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// ─── IP-based geolocation ───────────────────────────────────────────

type ipAPIResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	City        string  `json:"city"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
}

// IPGeolocate auto-detects the caller's location from its public IP
// address via ipapi.co.
func IPGeolocate(ctx context.Context) (ResolvedLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipapi.co/json/", nil)
	if err != nil {
		return ResolvedLocation{}, &NetworkError{Msg: err.Error()}
	}
	req.Header.Set("User-Agent", "waqt/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return ResolvedLocation{}, &NetworkError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	var r ipAPIResult
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return ResolvedLocation{}, &InvalidResponseError{Msg: err.Error()}
	}

	tz := r.Timezone
	if tz == "" {
		tz = tzFromCoords(r.Latitude, r.Longitude)
	}
	city := r.City
	if city == "" {
		city = "Unknown"
	}
	name := city
	if r.CountryName != "" {
		name = fmt.Sprintf("%s, %s", city, r.CountryName)
	}

	return ResolvedLocation{
		Name: name, Lat: r.Latitude, Lon: r.Longitude, TZ: tz,
		Source: SourceIPAPI, CountryCode: r.CountryCode, ResolverConfidence: 0.8,
	}, nil
}

// ─── Timezone estimation from coordinates ───────────────────────────

// tzFromCoords estimates an IANA timezone name for a coordinate pair:
// tries a free coordinate-to-timezone API first, falling back to a
// rough longitude-band lookup so the resolver still works offline.
func tzFromCoords(lat, lon float64) string {
	if tz, err := tzFromAPI(lat, lon); err == nil {
		return tz
	}

	offsetHours := int(lon/15.0 + 0.5)
	if lon < 0 {
		offsetHours = int(lon/15.0 - 0.5)
	}
	switch {
	case offsetHours <= -10:
		return "Pacific/Honolulu"
	case offsetHours == -9:
		return "America/Anchorage"
	case offsetHours == -8:
		return "America/Los_Angeles"
	case offsetHours == -7:
		return "America/Denver"
	case offsetHours == -6:
		return "America/Chicago"
	case offsetHours == -5:
		return "America/New_York"
	case offsetHours == -4:
		return "America/Halifax"
	case offsetHours == -3:
		return "America/Sao_Paulo"
	case offsetHours == -2 || offsetHours == -1:
		return "Atlantic/Azores"
	case offsetHours == 0:
		return "Europe/London"
	case offsetHours == 1:
		return "Europe/Paris"
	case offsetHours == 2:
		return "Europe/Helsinki"
	case offsetHours == 3:
		return "Europe/Moscow"
	case offsetHours == 4:
		return "Asia/Dubai"
	case offsetHours == 5:
		return "Asia/Karachi"
	case offsetHours == 6:
		return "Asia/Dhaka"
	case offsetHours == 7:
		return "Asia/Bangkok"
	case offsetHours == 8:
		return "Asia/Shanghai"
	case offsetHours == 9:
		return "Asia/Tokyo"
	case offsetHours == 10:
		return "Australia/Sydney"
	case offsetHours == 11:
		return "Pacific/Noumea"
	case offsetHours == 12:
		return "Pacific/Auckland"
	default:
		return "UTC"
	}
}

func tzFromAPI(lat, lon float64) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	u := fmt.Sprintf("https://www.timeapi.io/api/timezone/coordinate?latitude=%f&longitude=%f", lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &NetworkError{Msg: err.Error()}
	}
	req.Header.Set("User-Agent", "waqt/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	var val map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&val); err != nil {
		return "", &InvalidResponseError{Msg: err.Error()}
	}
	tz, ok := val["timeZone"].(string)
	if !ok || tz == "" {
		return "", &InvalidResponseError{Msg: "no timeZone field"}
	}
	return tz, nil
}
