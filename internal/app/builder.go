package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch-go/internal/config"
	"jobwatch-go/internal/console"
	"jobwatch-go/internal/db"
	"jobwatch-go/internal/email"
	"jobwatch-go/internal/httpapi"
	"jobwatch-go/internal/notify"
	"jobwatch-go/internal/providers/browser"
	"jobwatch-go/internal/providers/static"
	"jobwatch-go/internal/repositories"
	"jobwatch-go/internal/repositories/file"
	"jobwatch-go/internal/repositories/postgres"
	"jobwatch-go/internal/repositories/sqlite"
	"jobwatch-go/internal/scheduler"
	"jobwatch-go/internal/services/checking"
	"jobwatch-go/internal/telegram"
)

type Builder struct {
	cfg          *config.Config
	basePath     string
	ensureSchema bool
	stdout       io.Writer

	pool     *pgxpool.Pool
	store    repositories.SnapshotStore
	notifier checking.Notifier
	fetcher  checking.ListingFetcher
	client   *http.Client

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{
		cfg:          cfg,
		ensureSchema: true,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithBasePath(basePath string) BuilderOption {
	return func(b *Builder) {
		b.basePath = basePath
	}
}

func WithEnsureSchema(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.ensureSchema = enabled
	}
}

func WithStdout(w io.Writer) BuilderOption {
	return func(b *Builder) {
		b.stdout = w
	}
}

func WithDBPool(pool *pgxpool.Pool) BuilderOption {
	return func(b *Builder) {
		b.pool = pool
	}
}

func WithStore(store repositories.SnapshotStore) BuilderOption {
	return func(b *Builder) {
		b.store = store
	}
}

func WithNotifier(notifier checking.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithFetcher(fetcher checking.ListingFetcher) BuilderOption {
	return func(b *Builder) {
		b.fetcher = fetcher
	}
}

func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	app := &App{Config: b.cfg, cancel: cancel}

	if err := b.buildStore(ctx, app); err != nil {
		app.Close()
		return nil, err
	}
	app.Store = b.store

	if b.client == nil {
		b.client = &http.Client{Timeout: b.cfg.FetchTimeout + 5*time.Second}
	}

	if b.fetcher == nil {
		b.fetcher = b.newFetcher()
	}
	app.Fetcher = b.fetcher

	if b.notifier == nil {
		b.notifier = b.newNotifier()
	}
	app.Notifier = b.notifier

	app.CheckService = checking.NewService(b.cfg.TargetURL, app.Store, app.Fetcher, app.Notifier)

	if b.scheduler == nil {
		b.scheduler = scheduler.New(b.cfg.CronSpec, app.CheckService, true)
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		handler := httpapi.NewHandler(runCtx, app.CheckService)
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return app, nil
}

func (b *Builder) buildStore(ctx context.Context, app *App) error {
	if b.store != nil {
		return nil
	}

	switch b.cfg.SnapshotBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(b.cfg.SQLitePath)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, func() { store.Close() })
		b.store = store

	case config.BackendPostgres:
		if b.pool == nil {
			pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
			if err != nil {
				return err
			}
			b.pool = pool
			app.closers = append(app.closers, pool.Close)
		}
		app.Pool = b.pool

		if b.ensureSchema {
			basePath, err := b.resolveBasePath()
			if err != nil {
				return err
			}
			if err := db.EnsureSchema(ctx, b.pool, basePath); err != nil {
				return err
			}
		}
		b.store = postgres.NewSnapshotRepository(b.pool)

	case config.BackendFile, "":
		dir := b.cfg.SnapshotDir
		if !filepath.IsAbs(dir) {
			basePath, err := b.resolveBasePath()
			if err != nil {
				return err
			}
			dir = filepath.Join(basePath, dir)
		}
		b.store = file.NewStore(dir, b.cfg.SnapshotPrefix)

	default:
		return fmt.Errorf("unknown snapshot backend %q", b.cfg.SnapshotBackend)
	}
	return nil
}

func (b *Builder) resolveBasePath() (string, error) {
	if b.basePath != "" {
		return filepath.Abs(b.basePath)
	}
	return os.Getwd()
}

func (b *Builder) newFetcher() checking.ListingFetcher {
	if b.cfg.FetchMode == config.FetchBrowser {
		return browser.NewFetcher(browser.Config{
			RemoteURL:         b.cfg.BrowserRemoteURL,
			Selector:          b.cfg.ListingSelector,
			Wait:              b.cfg.BrowserWait,
			NavigationTimeout: b.cfg.FetchTimeout,
		})
	}
	return static.NewFetcher(b.client, b.cfg.ListingSelector, b.cfg.FetchPages, b.cfg.FetchTimeout)
}

func (b *Builder) newNotifier() checking.Notifier {
	channels := make([]checking.Notifier, 0, len(b.cfg.NotifyChannels))
	for _, name := range b.cfg.NotifyChannels {
		switch name {
		case config.ChannelConsole:
			channels = append(channels, console.NewPrinter(b.stdout))
		case config.ChannelEmail:
			channels = append(channels, email.NewSender(email.Config{
				Host:     b.cfg.SMTPHost,
				Port:     b.cfg.SMTPPort,
				Username: b.cfg.SMTPUsername,
				Password: b.cfg.SMTPPassword,
				From:     b.cfg.SMTPFrom,
				To:       b.cfg.Recipient,
				Target:   b.cfg.TargetURL,
			}))
		case config.ChannelTelegram:
			channels = append(channels, telegram.NewSender(b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID, b.cfg.TargetURL))
		}
	}
	if len(channels) == 1 {
		return channels[0]
	}
	return notify.NewFanout(channels...)
}
