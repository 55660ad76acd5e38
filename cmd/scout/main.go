// Command scout runs category analysis and product searches from the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"valuescout/internal/app"
	"valuescout/internal/config"
	"valuescout/internal/handler"
	"valuescout/internal/logging"
	"valuescout/internal/model"
	"valuescout/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cliOptions struct {
	timeZone string
	jsonOut  bool
	verbose  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "scout",
		Short:         "Find the best-value products for a shopping query",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.timeZone, "tz", "", "IANA time zone used to pick the shopping region (default: local)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print raw JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newAnalyzeCmd(opts), newSearchCmd(opts), newRegionCmd(opts), newServeCmd(opts))
	return root
}

func newRegionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "region",
		Short: "Show the shopping region for the current time zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			region := service.ResolveRegion(service.FixedTimeZone(opts.timeZone))
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), region)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n", region.Flag, region.CountryName, region.Domain, region.CurrencySymbol)
			return nil
		},
	}
}

func newAnalyzeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze QUERY",
		Short: "List the attributes that matter for a product category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, _, cleanup, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := a.Scout.Analyze(ctx, &model.AnalyzeRequest{
				Query:    strings.Join(args, " "),
				TimeZone: opts.timeZone,
			})
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newSearchCmd(opts *cliOptions) *cobra.Command {
	var (
		zip     string
		mode    string
		radius  int
		noCache bool
		values  []string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Analyze a category, then search and rank live products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locationFlags(zip, mode, radius)
			if err != nil {
				return err
			}
			userValues, err := parseValues(values)
			if err != nil {
				return err
			}

			ctx, a, _, cleanup, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			resp, err := a.Scout.RunStream(ctx, &model.ScoutRequest{
				Query:      strings.Join(args, " "),
				UserValues: userValues,
				Location:   loc,
				TimeZone:   opts.timeZone,
				NoCache:    noCache,
			}, func(event string, data any) error {
				if !opts.jsonOut {
					if m, ok := data.(map[string]any); ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", m["status"])
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(out, resp)
			}
			printResults(out, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&zip, "zip", "", "postal code for local results")
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "search scope: global, local or hybrid")
	cmd.Flags().IntVar(&radius, "radius", model.DefaultRadiusKm, "local search radius in km")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip cached results")
	cmd.Flags().StringArrayVar(&values, "set", nil, "attribute value as key=value (repeatable)")
	return cmd
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API without the bundled frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.verbose = true
			ctx, a, cfg, cleanup, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = cfg.Address()
			}
			gin.SetMode(cfg.Server.GinMode)

			srv := &http.Server{
				Addr: addr,
				Handler: handler.NewRouter(handler.RouterDeps{
					Config:   cfg,
					Scout:    a.Scout,
					Missions: a.Missions,
					Gatherer: a.Registry,
					Logger:   a.Logger,
					Build:    handler.BuildInfo{Version: "cli", BuildTime: "unknown", GitCommit: "unknown"},
					Health:   a.Health,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("starting server", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from SERVER_HOST and SERVER_PORT)")
	return cmd
}

func setup(parent context.Context, opts *cliOptions) (context.Context, *app.App, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger := zap.NewNop()
	if opts.verbose {
		cfg.Logging.Format = "console"
		if logger, err = logging.New(cfg.Logging); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		stop()
		return nil, nil, nil, nil, err
	}

	return ctx, a, cfg, func() {
		a.Close()
		stop()
		_ = logger.Sync()
	}, nil
}

// locationFlags turns the search flags into a location
func locationFlags(zip, mode string, radius int) (*model.UserLocation, error) {
	exclude, localOnly, ok := model.ParseSearchMode(mode)
	if !ok {
		return nil, fmt.Errorf("unknown mode %q: want global, local or hybrid", mode)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("radius must be positive")
	}
	return &model.UserLocation{
		ZipCode:               strings.TrimSpace(zip),
		Radius:                radius,
		ExcludeRegionSpecific: exclude,
		LocalOnly:             localOnly,
	}, nil
}

// parseValues reads key=value pairs. Values that parse as JSON keep their type.
func parseValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		values[key] = v
	}
	return values, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, a *model.AnalysisResult) {
	fmt.Fprintf(w, "%s %s\n\n", a.Region.Flag, a.Region.CountryName)
	if a.MarketGuide != "" {
		fmt.Fprintf(w, "%s\n\n", a.MarketGuide)
	}
	for _, attr := range a.Attributes {
		fmt.Fprintf(w, "  %-20s %-8s %s\n", attr.Key, attr.Type, attr.Label)
	}
	if len(a.Suggestions) > 0 {
		fmt.Fprintf(w, "\nTry: %s\n", strings.Join(a.Suggestions, ", "))
	}
}

func printResults(w io.Writer, resp *model.ScoutResponse) {
	if resp.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", resp.Summary)
	}
	for _, p := range resp.Products {
		fmt.Fprintf(w, "%d. %s %s  %.2f %s  score %d\n", p.Rank, p.Brand, p.Name, p.Price, p.Currency, p.ValueScore)
		if len(p.Highlights) > 0 {
			fmt.Fprintf(w, "   %s\n", strings.Join(p.Highlights, " · "))
		}
		for _, link := range p.Retailers {
			fmt.Fprintf(w, "   - %s: %s\n", link.Name, link.URL)
		}
	}
	if resp.Cached {
		fmt.Fprintln(w, "\n(cached)")
	}
}
