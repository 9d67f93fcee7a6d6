package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	applogger "DiabScreen/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// HTTPServer is the listener the App serves and stops.
type HTTPServer interface {
	Serve() error
	Stop(ctx context.Context) error
}

// Worker is a background loop that runs until its context is cancelled.
type Worker interface {
	Run(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	log     *applogger.Logger
	server  HTTPServer
	workers []Worker
	signals []os.Signal
}

// New creates a new App. Nil workers are ignored.
func New(log *applogger.Logger, server HTTPServer, workers ...Worker) *App {
	a := &App{
		log:     log.Named("app"),
		server:  server,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, w := range workers {
		if w != nil {
			a.workers = append(a.workers, w)
		}
	}
	return a
}

// Run serves until ctx is cancelled, an interrupt arrives or a component fails.
// The HTTP server is stopped before the workers so in-flight requests can still
// hand work to them; workers then get their own cancellation to drain.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.server.Serve)
	for _, w := range a.workers {
		g.Go(func() error { return w.Run(workerCtx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorkers()
		if ctx.Err() != nil {
			a.log.Info("shutdown signal received")
		}
		return a.server.Stop(context.WithoutCancel(ctx))
	})

	err := g.Wait()
	if err != nil {
		a.log.Error("app stopped with error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
