package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yusufkaya/waqt/internal/cache"
	"github.com/yusufkaya/waqt/internal/location"
	"github.com/yusufkaya/waqt/internal/schedule"
	"github.com/yusufkaya/waqt/internal/solver"
)

const dateLayout = "2006-01-02"

// resolveQueryLocation resolves the city-or-lat/lon location query
// parameters shared by /api/times and /api/month.
func (s *Server) resolveQueryLocation(ctx context.Context, r *http.Request) (location.ResolvedLocation, error) {
	q := r.URL.Query()

	if city := q.Get("city"); city != "" {
		opts := location.ResolveOptions{Country: q.Get("country")}
		return s.resolver.ResolveCityWithOptions(ctx, city, opts)
	}

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr != "" && lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return location.ResolvedLocation{}, &solver.InvalidInputError{Msg: fmt.Sprintf("invalid lat %q", latStr)}
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return location.ResolvedLocation{}, &solver.InvalidInputError{Msg: fmt.Sprintf("invalid lon %q", lonStr)}
		}
		if _, err := solver.NewLocation(lat, lon); err != nil {
			return location.ResolvedLocation{}, err
		}
		return location.FromManual(lat, lon, q.Get("tz")), nil
	}

	return location.ResolvedLocation{}, &location.NoInputError{}
}

// applyTZOverride replaces resolved's timezone when the caller passed
// an explicit tz parameter (the location's own source left as-is).
func applyTZOverride(resolved location.ResolvedLocation, r *http.Request) (location.ResolvedLocation, error) {
	tzOverride := r.URL.Query().Get("tz")
	if tzOverride == "" {
		return resolved, nil
	}
	if _, err := time.LoadLocation(tzOverride); err != nil {
		return resolved, &solver.InvalidInputError{Msg: fmt.Sprintf("unknown timezone %q", tzOverride)}
	}
	resolved.TZ = tzOverride
	return resolved, nil
}

func parseDateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &solver.InvalidInputError{Msg: fmt.Sprintf("invalid date %q: use YYYY-MM-DD", raw)}
	}
	return date, nil
}

func (s *Server) parseStrategyParam(r *http.Request) (schedule.GapStrategy, error) {
	switch r.URL.Query().Get("strategy") {
	case "":
		return s.cfg.DefaultGapStrategy, nil
	case "projected45", "projected", "Projected45":
		return schedule.Projected45, nil
	case "strict", "Strict":
		return schedule.Strict, nil
	default:
		raw := r.URL.Query().Get("strategy")
		return schedule.Projected45, &solver.InvalidInputError{Msg: fmt.Sprintf("unknown strategy %q: use 'strict' or 'projected45'", raw)}
	}
}

// handleTimes implements GET /api/times?city=...|lat=&lon=&tz=&date=&strategy=
func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported", nil)
		return
	}
	ctx := r.Context()

	resolved, err := s.resolveQueryLocation(ctx, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resolved, err = applyTZOverride(resolved, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	strategy, err := s.parseStrategyParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	output := s.solve(ctx, resolved, date, strategy)
	writeJSON(w, r, http.StatusOK, output)
}

// handleMonth implements GET /api/month?...&year=&month=, not part of
// the original reference handlers, added to satisfy the full month
// view the CLI's `month` subcommand and the web calendar both need.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported", nil)
		return
	}
	ctx := r.Context()

	resolved, err := s.resolveQueryLocation(ctx, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resolved, err = applyTZOverride(resolved, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	strategy, err := s.parseStrategyParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	year, month, err := parseYearMonthParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	outputs := make([]solver.SolverOutput, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		outputs = append(outputs, s.solve(ctx, resolved, date, strategy))
	}

	writeJSON(w, r, http.StatusOK, outputs)
}

func parseYearMonthParams(r *http.Request) (int, time.Month, error) {
	q := r.URL.Query()
	now := time.Now().UTC()

	year := now.Year()
	if raw := q.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, &solver.InvalidInputError{Msg: fmt.Sprintf("invalid year %q", raw)}
		}
		year = y
	}

	month := now.Month()
	if raw := q.Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, &solver.InvalidInputError{Msg: fmt.Sprintf("invalid month %q: use 1-12", raw)}
		}
		month = time.Month(m)
	}

	return year, month, nil
}

// handleCities implements GET /api/cities.
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported", nil)
		return
	}
	writeJSON(w, r, http.StatusOK, location.BuiltinCityList())
}

// solve runs the per-date schedule cache lookup, falling back to a
// fresh compute on a miss. The cache key omits timezone: the UTC
// schedule it stores depends only on date/lat/lon/strategy, so one
// cached entry serves every timezone override for the same place.
func (s *Server) solve(ctx context.Context, resolved location.ResolvedLocation, date time.Time, strategy schedule.GapStrategy) solver.SolverOutput {
	sv := solver.FromResolved(resolved).WithStrategy(strategy)
	dateKey := date.Format(dateLayout)
	key := cache.Key(dateKey, resolved.Lat, resolved.Lon, strategy)

	if s.cache != nil {
		if sched, ok := s.cache.Get(ctx, key); ok {
			return sv.AssembleOutput(date, false, false, &resolved, sched)
		}
	}

	sched := schedule.ComputeWithContext(ctx, date, resolved.Lat, resolved.Lon, strategy)
	if s.cache != nil {
		s.cache.Set(ctx, key, sched)
	}

	return sv.AssembleOutput(date, false, false, &resolved, sched)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", requestIDFrom(r))
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
