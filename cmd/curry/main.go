// cmd/curry/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/curry/internal/cache"
	"github.com/briangreenhill/curry/internal/config"
	"github.com/briangreenhill/curry/internal/facades"
	"github.com/briangreenhill/curry/internal/logging"
	"github.com/briangreenhill/curry/internal/providers"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	return a.run(args)
}

type options struct {
	api          string
	apiKey       string
	refreshCache bool
	list         bool
	save         bool
	verbose      int
}

// app wires config, cache and providers for one invocation
type app struct {
	stdout io.Writer
	stderr io.Writer

	// test hooks
	baseURL string
	client  *http.Client
}

func (a *app) run(args []string) int {
	cmd := a.command()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(a.stderr, "error: %s\n", err)
		return 1
	}
	return 0
}

func (a *app) command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "curry [flags] <from> <to> [amount...]",
		Short:   "Convert between currencies using live exchange rates",
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.list {
				return nil
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.api, "api", "a", "", "get exchange rates from a specific API provider (id or list number)")
	f.StringVarP(&opts.apiKey, "key", "k", "", "API key for providers that require one")
	f.BoolVarP(&opts.refreshCache, "refresh-cache", "r", false, "refresh the cache even when it has not expired")
	f.BoolVarP(&opts.list, "list", "l", false, "show available API providers and exit")
	f.BoolVarP(&opts.save, "save", "s", false, "save the API provider and key to the config file")
	f.CountVarP(&opts.verbose, "verbose", "v", "increase logging verbosity (-v info, -vv debug)")

	return cmd
}

func (a *app) convert(ctx context.Context, opts options, args []string) error {
	logger := logging.New(a.stderr, opts.verbose)

	env, err := config.LoadEnvironment()
	if err != nil {
		return err
	}
	cfg, err := config.Load(env.ConfigDir)
	if err != nil {
		return err
	}

	registry := providers.Setup()

	if opts.list {
		a.printProviders(registry, cfg.API)
		return nil
	}

	amount, err := sumAmounts(args[2:])
	if err != nil {
		return err
	}

	api := opts.api
	if api == "" {
		api = cfg.API
	}
	entry, err := registry.Resolve(api)
	if err != nil {
		return err
	}

	apiKey := opts.apiKey
	if apiKey == "" {
		apiKey = cfg.APIKey(entry.ID)
	}

	facade, err := facades.NewExchangeRateFacade(registry, entry.ID, providers.Options{
		APIKey:       apiKey,
		RefreshCache: opts.refreshCache,
		Cache:        openCache(env.CacheDir, logger),
		CacheTimeout: cfg.CacheTTL(),
		HTTPClient:   a.httpClient(cfg),
		BaseURL:      a.baseURL,
	}, logger)
	if err != nil {
		return err
	}

	rate, err := facade.ExchangeRate(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if rate <= 0 {
		logger.Info().Float64("rate", rate).Msg("got non-positive exchange rate")
		return errors.New("unable to get exchange rate")
	}

	total := decimal.NewFromFloat(rate).Mul(amount)
	fmt.Fprintln(a.stdout, total.StringFixed(2))

	if opts.save {
		cfg.Remember(facade.ProviderID(), apiKey)
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		logger.Info().Str("path", cfg.Path()).Msg("saved config")
	}

	return nil
}

func (a *app) httpClient(cfg *config.Config) *http.Client {
	if a.client != nil {
		return a.client
	}
	return &http.Client{Timeout: cfg.HTTPTimeout()}
}

func (a *app) printProviders(registry *providers.Registry, defaultAPI string) {
	def := defaultAPI
	if entry, err := registry.Resolve(defaultAPI); err == nil {
		def = entry.ID
	}

	fmt.Fprintln(a.stdout, "Available API providers:")
	for _, e := range registry.List() {
		name := e.ID
		if e.ID == def {
			name += "*"
		}
		line := fmt.Sprintf("%4s %s", fmt.Sprintf("(%d)", e.Index), name)
		if len(e.Requires) > 0 {
			line += fmt.Sprintf(" (requires: %s)", strings.Join(e.Requires, ", "))
		}
		fmt.Fprintln(a.stdout, line)
	}
}

// openCache returns nil when the cache directory is unusable; lookups then
// go straight to the network
func openCache(dir string, logger zerolog.Logger) cache.Store {
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn().Err(err).Msg("cache disabled")
		return nil
	}
	return fc
}

// sumAmounts adds the given amounts; none means 1
func sumAmounts(args []string) (decimal.Decimal, error) {
	if len(args) == 0 {
		return decimal.NewFromInt(1), nil
	}
	sum := decimal.Zero
	for _, arg := range args {
		d, err := decimal.NewFromString(arg)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount: %q", arg)
		}
		sum = sum.Add(d)
	}
	return sum, nil
}
