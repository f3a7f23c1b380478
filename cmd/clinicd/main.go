package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	clinic "github.com/goliatone/go-clinic"
	"github.com/goliatone/go-clinic/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *config.AppConfig
	logger *glog.BaseLogger
	bunDB  *bun.DB
	repo   clinic.RepositoryManager
	srv    router.Server[*fiber.App]
	auth   clinic.Authenticator
	gate   *clinic.RouteAuthenticator
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("clinicd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		lgr.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Server.Debug {
		fmt.Println(print.MaybeHighlightJSON(cfg))
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := WithAuth(ctx, app); err != nil {
		lgr.Error("auth bootstrap failed", "error", err)
		os.Exit(1)
	}

	app.srv.Serve(cfg.Server.GetAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*clinic.User)(nil))
	persistence.RegisterModel((*clinic.Appointment)(nil))

	client, err := persistence.New(app.config.GetPersistence(), db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(clinic.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = clinic.NewRepositoryManager(client.DB())

	if app.config.Server.GetEnv() == "development" {
		if err := seedAccounts(ctx, app); err != nil {
			return err
		}

		// appointment fixtures reference the seeded account ids
		client.RegisterFixtures(clinic.GetFixturesFS()).AddOptions(persistence.WithTrucateTables())
		if err := client.Seed(ctx); err != nil {
			return err
		}
	}

	return nil
}

// seedAccounts provisions one account per role so a fresh development
// database is usable immediately. Hashes are computed at startup; no
// secrets live in fixture files.
func seedAccounts(ctx context.Context, app *App) error {
	existing, err := app.repo.Users().List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seeds := []struct {
		id       string
		username string
		email    string
		role     clinic.UserRole
		password string
	}{
		{"5d8f2b6c-1a3e-4c7d-9f0b-1a2b3c4d0001", "admin", "admin@clinic.local", clinic.RoleAdmin, "admin1234"},
		{"9a2e1d54-7c1b-4f8a-8e2d-7f5a1c9b0002", "dr.house", "house@clinic.local", clinic.RoleDoctor, "doctor1234"},
		{"3c9f6f9a-24d0-4a27-9a3e-c4be64e30003", "jane.doe", "jane@clinic.local", clinic.RolePatient, "patient1234"},
	}

	lgr := app.GetLogger("seed")

	for _, seed := range seeds {
		hash, err := clinic.HashPassword(seed.password)
		if err != nil {
			return err
		}

		user := &clinic.User{
			ID:           uuid.MustParse(seed.id),
			Username:     seed.username,
			Email:        seed.email,
			Role:         seed.role,
			PasswordHash: hash,
		}

		if _, err := app.repo.Users().Create(ctx, user); err != nil {
			return err
		}

		lgr.Info("seeded account", "email", seed.email, "role", seed.role)
	}

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:           "clinicd",
			UnescapePath:      true,
			EnablePrintRoutes: app.config.Server.GetDebug(),
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/healthz", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{"status": "ok"})
	})

	app.srv = srv

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	cfg := app.config.GetAuth()

	if err := app.repo.Validate(); err != nil {
		return err
	}

	userProvider := clinic.NewUserProvider(app.repo.Users())
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := clinic.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(app.GetLogger("auth:authz"))

	app.auth = authenticator

	gate, err := clinic.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}

	gate.Logger = app.GetLogger("auth:http")
	app.gate = gate

	controller := clinic.NewAPIController(
		clinic.WithControllerDebug(app.config.Server.GetDebug()),
		clinic.WithControllerLogger(app.GetLogger("auth:ctrl")),
		clinic.WithControllerRepo(app.repo),
		clinic.WithControllerAuther(authenticator),
		clinic.WithControllerGate(gate),
	)

	clinic.RegisterAPIRoutes(app.srv.Router().Group("/"), controller)

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
