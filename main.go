package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"fewr/app"
	"fewr/auth"
	"fewr/catalog"
	"fewr/config"
	"fewr/database"
	"fewr/labels"
	"fewr/loader"
	"fewr/logging"
	"fewr/metrics"
	"fewr/render"
	"fewr/uploads"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root := &cobra.Command{
		Use:           "fewr",
		Short:         "Plant operations: logbook, shifts, raw materials, chemicals, big bags, bulk and team",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")

	root.AddCommand(serve)
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema, seed the catalog and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

// bootstrap loads the configuration, builds the logger and opens the
// database with the schema and catalog in place.
func bootstrap() (*config.Config, *zap.Logger, *sqlx.DB, *catalog.Catalog, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger.Info("connecting to database", zap.String("path", cfg.Database.Path))
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := loader.InitDatabase(db, cat, logger, bcrypt.DefaultCost); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("database initialization failed: %w", err)
	}
	return cfg, logger, db, cat, nil
}

func runMigrate() error {
	_, logger, db, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	return db.Close()
}

func runServe(parent context.Context) error {
	cfg, logger, db, cat, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	loc := cfg.Location()
	views, err := render.New(loc)
	if err != nil {
		return err
	}
	up, err := uploads.New(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize, cfg.Uploads.MaxFiles, time.Now)
	if err != nil {
		return err
	}

	env := &app.Env{
		DB:         db,
		Log:        logger,
		Cfg:        cfg,
		Catalog:    catalog.NewStore(cat),
		Views:      views,
		Metrics:    metrics.New(),
		Uploads:    up,
		Loc:        loc,
		Now:        time.Now,
		BcryptCost: bcrypt.DefaultCost,
	}
	if cfg.Labels.PDF {
		env.Labels = labels.NewPDFPrinter(cfg.Labels.ChromeBin, cfg.Labels.Timeout)
	}

	mux := http.NewServeMux()
	SetupRoutes(mux, env, auth.NewLimiter(cfg.Auth.LoginPerMinute, cfg.Auth.LoginBurst, time.Now))
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, env.Metrics.Handler())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           logging.AccessLog(logger, env.Metrics.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("address", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		g.Go(func() error {
			return env.Catalog.Watch(ctx, cfg.Catalog.Path, logger, func(c *catalog.Catalog) error {
				return loader.SyncCatalog(db, c, logger, env.BcryptCost)
			})
		})
	}

	return g.Wait()
}
