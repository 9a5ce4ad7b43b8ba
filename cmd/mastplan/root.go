package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mastplan/internal/config"
	logpkg "github.com/kailas-cloud/mastplan/internal/logger"
	mastTransport "github.com/kailas-cloud/mastplan/internal/transport/mast"
	checkuc "github.com/kailas-cloud/mastplan/internal/usecase/check"
	healthuc "github.com/kailas-cloud/mastplan/internal/usecase/health"
	resolveuc "github.com/kailas-cloud/mastplan/internal/usecase/resolve"
	searchuc "github.com/kailas-cloud/mastplan/internal/usecase/search"
	"github.com/kailas-cloud/mastplan/internal/version"
)

// app is the composition root shared by all subcommands.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	mast    *mastTransport.Client
	resolve *resolveuc.Service
	search  *searchuc.Service
	check   *checkuc.Service
	health  *healthuc.Service
}

type rootFlags struct {
	envFile  string
	logLevel string
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:          "mastplan",
		Short:        "Check MAST for planned JWST observations near a target",
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before config")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCmd(a),
		newResolveCmd(a, flags),
		newSearchCmd(a, flags),
		newCheckCmd(a, flags),
	)
	return root
}

// init loads config and wires services. serve logs with the env logger, other commands stay quiet.
func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return err
	}

	a.env = config.GetEnv()
	cfg, err := config.Load(a.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logEnv, level := "cli", flags.logLevel
	if cmd.Name() == "serve" {
		logEnv = a.env
		if level == "" {
			level = cfg.Logging.Level
		}
	}
	a.logger, err = logpkg.NewLogger(logEnv, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a.mast = mastTransport.NewClient(&mastTransport.Config{
		BaseURL:           cfg.Mast.BaseURL,
		InvokePath:        cfg.Mast.InvokePath,
		ResolverService:   cfg.Search.ResolverService,
		Timeout:           cfg.Mast.Timeout(),
		PollInterval:      cfg.Mast.PollInterval(),
		RequestsPerSecond: cfg.Mast.RequestsPerSecond,
		PageSize:          cfg.Mast.PageSize,
		UserAgent:         cfg.Mast.UserAgent,
		HTTPClient:        newArchiveHTTPClient(),
		Logger: a.logger,
	})

	a.resolve = resolveuc.New(a.mast, a.logger)
	a.search = searchuc.New(a.mast, searchuc.Config{
		Service:      cfg.Search.Service,
		MaxFullFetch: cfg.Search.MaxFullFetch,
	}, a.logger)
	a.check = checkuc.New(a.resolve, a.search, a.logger).WithMaxTargets(cfg.Search.MaxTargets)
	a.health = healthuc.New(a.mast)
	return nil
}

// newArchiveHTTPClient keeps the default proxy, dial and TLS settings and
// allows a few idle connections to the single archive host.
func newArchiveHTTPClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = 4
	return &http.Client{Transport: tr}
}
