package app

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch-go/internal/config"
	"jobwatch-go/internal/repositories"
	"jobwatch-go/internal/scheduler"
	"jobwatch-go/internal/services/checking"
)

type App struct {
	Config       *config.Config
	Pool         *pgxpool.Pool
	Store        repositories.SnapshotStore
	Fetcher      checking.ListingFetcher
	Notifier     checking.Notifier
	CheckService *checking.Service
	Scheduler    *scheduler.Scheduler
	Server       *http.Server

	cancel  context.CancelFunc
	closers []func()
}

func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		log.Printf("HTTP server listening on %s", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	err := a.Server.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases the store without touching the scheduler or server, for
// one-shot callers that never called Start.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
