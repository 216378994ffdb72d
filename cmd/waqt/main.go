// Command waqt is the prayer-time and Hijri-calendar CLI: it resolves
// a location (city name, IP auto-detection, or raw coordinates),
// computes a day's or month's schedule, and prints an ASCII timeline
// alongside structured JSON/YAML output, following the same
// compute-then-render split as the original reference CLI, structured
// as cobra subcommands with one command per operation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yusufkaya/waqt/internal/hijri"
	"github.com/yusufkaya/waqt/internal/location"
	"github.com/yusufkaya/waqt/internal/schedule"
	"github.com/yusufkaya/waqt/internal/solver"
)

var outputFormat string

func main() {
	root := &cobra.Command{
		Use:   "waqt",
		Short: "Adaptive prayer-time and Hijri-calendar engine",
		Long: `waqt computes Islamic prayer times for any location on Earth, including
polar regions where the sun does not rise or set for weeks at a time,
and tracks the Hijri calendar's lunar-conjunction-anchored Ramadan dates.

Examples:
  waqt times Stockholm
  waqt times --city "New York" --date 2026-03-20
  waqt month --city Medina --year 2026 --month 3
  waqt ramadan --year 1448 --city Mecca
  waqt cities`,
	}
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json, yaml")

	root.AddCommand(newTimesCommand())
	root.AddCommand(newMonthCommand())
	root.AddCommand(newRamadanCommand())
	root.AddCommand(newCitiesCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// locationFlags are the city-or-coordinates flags shared by the
// `times` and `month` subcommands.
type locationFlags struct {
	city    string
	auto    bool
	lat     float64
	lon     float64
	haveLat bool
	haveLon bool
	tz      string
	offline bool
	country string
	topk    int
}

func bindLocationFlags(cmd *cobra.Command, f *locationFlags) {
	cmd.Flags().StringVar(&f.city, "city", "", "city name, e.g. \"New York\" or \"Medina, Saudi Arabia\"")
	cmd.Flags().BoolVarP(&f.auto, "auto", "a", false, "auto-detect location via IP geolocation")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude (-90 to 90)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude (-180 to 180)")
	cmd.Flags().StringVar(&f.tz, "tz", "", "IANA timezone override, e.g. Europe/Oslo")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "offline mode: cache and built-in dataset only")
	cmd.Flags().StringVar(&f.country, "country", "", "country hint (ISO 3166-1 alpha-2), e.g. SA")
	cmd.Flags().IntVar(&f.topk, "topk", 0, "debug: print the top-K Nominatim candidates before resolving")
}

// resolve runs the city > positional-arg > auto > lat/lon fallback
// chain the original CLI implements, in the same priority order.
func (f *locationFlags) resolve(ctx context.Context, positional string) (location.ResolvedLocation, error) {
	resolver := location.NewResolver()
	resolver.SetOffline(f.offline)
	opts := location.ResolveOptions{Country: f.country, TopK: f.topk}

	switch {
	case f.city != "":
		return resolver.ResolveCityWithOptions(ctx, f.city, opts)
	case positional != "":
		return resolver.ResolveCityWithOptions(ctx, positional, opts)
	case f.auto:
		return resolver.ResolveAuto(ctx)
	case f.lat != 0 || f.lon != 0:
		if _, err := solver.NewLocation(f.lat, f.lon); err != nil {
			return location.ResolvedLocation{}, err
		}
		return location.FromManual(f.lat, f.lon, f.tz), nil
	default:
		return location.ResolvedLocation{}, &location.NoInputError{}
	}
}

func newTimesCommand() *cobra.Command {
	var (
		loc            locationFlags
		dateStr        string
		now            bool
		debugWave      bool
		strategyStr    string
		showConfidence bool
	)

	cmd := &cobra.Command{
		Use:     "times [city]",
		Aliases: []string{"compute"},
		Short:   "Compute a single day's prayer times",
		Example: `  waqt times Stockholm
  waqt times --city "New York" --date 2026-03-20
  waqt times --lat 78.22 --lon 15.63 --tz Arctic/Longyearbyen --strategy strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional := ""
			if len(args) > 0 {
				positional = args[0]
			}

			resolved, err := loc.resolve(cmd.Context(), positional)
			if err != nil {
				return err
			}
			if loc.tz != "" {
				resolved.TZ = loc.tz
			}

			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}
			strategy, err := parseStrategyFlag(strategyStr)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "  \U0001F4CD %s\n", resolved.DisplayLine())
			if resolved.Disambiguated && resolved.DisambiguationNote != "" {
				fmt.Fprintf(os.Stderr, "  ⚠️  Disambiguated: %s\n", resolved.DisambiguationNote)
			}

			sv := solver.FromResolved(resolved).WithStrategy(strategy)
			output := sv.SolveWithInfoContext(cmd.Context(), date, now, debugWave, &resolved)

			fmt.Fprint(os.Stderr, solver.RenderASCIITimeline(output.Events, output.State, output.GapStrategy, showConfidence))

			return printOutput(output)
		},
	}

	bindLocationFlags(cmd, &loc)
	today := time.Now().UTC().Format("2006-01-02")
	cmd.Flags().StringVarP(&dateStr, "date", "d", today, "date in YYYY-MM-DD format")
	cmd.Flags().BoolVar(&now, "now", false, "show the current prayer and time remaining")
	cmd.Flags().BoolVar(&debugWave, "debug-wave", false, "include the sampled altitude wave in the output")
	cmd.Flags().StringVar(&strategyStr, "strategy", "projected45", "gap strategy for polar states: strict or projected45")
	cmd.Flags().BoolVar(&showConfidence, "show-confidence", false, "show confidence scores in the ASCII timeline")

	return cmd
}

func newMonthCommand() *cobra.Command {
	var (
		loc         locationFlags
		year        int
		month       int
		strategyStr string
	)

	cmd := &cobra.Command{
		Use:   "month [city]",
		Short: "Compute a full month of prayer times",
		Example: `  waqt month --city Medina --year 2026 --month 3
  waqt month Tromso --month 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional := ""
			if len(args) > 0 {
				positional = args[0]
			}

			resolved, err := loc.resolve(cmd.Context(), positional)
			if err != nil {
				return err
			}
			if loc.tz != "" {
				resolved.TZ = loc.tz
			}

			strategy, err := parseStrategyFlag(strategyStr)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			y, m := year, time.Month(month)
			if y == 0 {
				y = now.Year()
			}
			if m == 0 {
				m = now.Month()
			}

			fmt.Fprintf(os.Stderr, "  \U0001F4CD %s\n", resolved.DisplayLine())

			first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
			days := first.AddDate(0, 1, -1).Day()

			sv := solver.FromResolved(resolved).WithStrategy(strategy)
			outputs := make([]solver.SolverOutput, 0, days)
			for d := 1; d <= days; d++ {
				date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
				outputs = append(outputs, sv.SolveWithInfoContext(cmd.Context(), date, false, false, &resolved))
			}

			return printOutput(outputs)
		},
	}

	bindLocationFlags(cmd, &loc)
	now := time.Now().UTC()
	cmd.Flags().IntVar(&year, "year", now.Year(), "Gregorian year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "Gregorian month (1-12)")
	cmd.Flags().StringVar(&strategyStr, "strategy", "projected45", "gap strategy for polar states: strict or projected45")

	return cmd
}

func newRamadanCommand() *cobra.Command {
	var (
		loc       locationFlags
		hijriYear int
	)

	cmd := &cobra.Command{
		Use:   "ramadan [city]",
		Short: "Find a Hijri year's Ramadan start and end dates",
		Example: `  waqt ramadan --city Mecca --year 1448
  waqt ramadan Medina`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional := ""
			if len(args) > 0 {
				positional = args[0]
			}

			resolved, err := loc.resolve(cmd.Context(), positional)
			if err != nil {
				return err
			}

			year := hijriYear
			if year == 0 {
				year = hijri.CurrentHijriYearForRamadan(time.Now().UTC())
			}

			info := hijri.FindRamadanWithContext(cmd.Context(), year, resolved.Lat, resolved.Lon)
			fmt.Fprintf(os.Stderr, "  \U0001F4CD %s\n", resolved.DisplayLine())

			return printOutput(info)
		},
	}

	bindLocationFlags(cmd, &loc)
	cmd.Flags().IntVar(&hijriYear, "year", 0, "Hijri year (defaults to the current one)")

	return cmd
}

func newCitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the built-in offline city dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printOutput(location.BuiltinCityList())
		},
	}
}

func parseDateFlag(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &solver.InvalidInputError{Msg: fmt.Sprintf("invalid date %q: %v", raw, err)}
	}
	return date, nil
}

func parseStrategyFlag(raw string) (schedule.GapStrategy, error) {
	switch raw {
	case "strict", "Strict":
		return schedule.Strict, nil
	case "projected45", "projected", "Projected45", "":
		return schedule.Projected45, nil
	default:
		return schedule.Projected45, &solver.InvalidInputError{Msg: fmt.Sprintf("unknown strategy %q: use 'strict' or 'projected45'", raw)}
	}
}

func printOutput(v interface{}) error {
	switch outputFormat {
	case "yaml", "yml":
		body, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(body))
	default:
		body, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(body))
	}
	return nil
}
