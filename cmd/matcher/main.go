package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/votermatch/internal/config"
	"github.com/votermatch/internal/db"
	"github.com/votermatch/internal/debug"
	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/phonetics"
	"github.com/votermatch/internal/store"
	"github.com/votermatch/internal/store/memstore"
	"github.com/votermatch/internal/voterfile"
)

// app is the state shared by every subcommand
type app struct {
	configPath string
	fixture    string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	a := &app{}

	// Create root command
	rootCmd := &cobra.Command{
		Use:           "matcher",
		Short:         "Voter file matching",
		Long:          `Matches a campaign's contact list against a state voter file and reports turnout history for each match`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.fixture, "fixture", "", "voter CSV to match against in memory instead of the database")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "trace retrieval and scoring")

	// Add subcommands
	rootCmd.AddCommand(a.pingCmd())
	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(a.importCmd())
	rootCmd.AddCommand(a.matchCmd())
	rootCmd.AddCommand(a.resultCmd())
	rootCmd.AddCommand(a.confirmCmd())
	rootCmd.AddCommand(a.rejectCmd())
	rootCmd.AddCommand(a.forgetCmd())
	rootCmd.AddCommand(a.serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) load() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath, true)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.debug {
		a.cfg.Matching.Debug = true
		a.cfg.Log.Level = "debug"
	}
	a.logger = debug.NewLogger(a.cfg.Log)
	return nil
}

// connect opens the configured database
func (a *app) connect(ctx context.Context) (*db.Connection, error) {
	conn, err := db.NewConnection(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", match.ErrMatchingUnavailable, err)
	}
	return conn, nil
}

// buildEngine wires an engine over Postgres, or over an in-memory voter
// file when --fixture is set. The returned func releases the connection.
func (a *app) buildEngine(ctx context.Context) (*match.Engine, func(), error) {
	ph := phonetics.NewService()
	m := a.cfg.Matching
	ecfg := match.EngineConfig{
		Phonetics:   ph,
		Weights:     match.WeightsFromConfig(m),
		Tiers:       match.TiersFromConfig(m),
		Limits:      match.LimitsFromConfig(m),
		Concurrency: m.Concurrency,
		Logger:      a.logger,
		Debug:       m.Debug,
	}

	if a.fixture != "" {
		voters, rowErrs, err := voterfile.ReadVotersFile(a.fixture)
		if err != nil {
			return nil, nil, err
		}
		fixture := memstore.New(ph)
		fixture.Add(voters...)
		a.logger.Info("loaded voter fixture", "path", a.fixture, "voters", fixture.Len(), "skipped", len(rowErrs))

		ecfg.Store = fixture
		engine, err := match.NewEngine(ecfg)
		return engine, func() {}, err
	}

	conn, err := a.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	probe, err := store.Probe(ctx, conn.DB)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	ecfg.Store = store.NewReferenceStore(conn.DB)
	ecfg.Results = store.NewResultStore(conn.DB)
	engine, err := match.NewEngine(ecfg)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if !probe.Fuzzy {
		engine.DisableFuzzy(match.ErrFuzzyUnavailable)
	}
	return engine, func() { conn.Close() }, nil
}
