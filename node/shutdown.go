package node

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/xerrors"
)

// ShutdownHandler stops one component of the market daemon.
type ShutdownHandler struct {
	Component string
	StopFunc  StopFunc
}

// MonitorShutdown waits for SIGTERM, SIGINT or a value on triggerCh, then
// stops the handlers in the order given. All handlers share one deadline.
// A failing handler is logged and the rest still run.
//
// The returned channel is closed once every handler has returned.
func MonitorShutdown(triggerCh <-chan struct{}, timeout time.Duration, handlers ...ShutdownHandler) <-chan struct{} {
	sigCh := make(chan os.Signal, 2)
	out := make(chan struct{})

	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			log.Warnw("stopping market daemon", "signal", sig)
		case <-triggerCh:
			log.Warn("stopping market daemon on request")
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs error
		for _, h := range handlers {
			start := time.Now()
			if err := h.StopFunc(ctx); err != nil {
				errs = multierr.Append(errs, xerrors.Errorf("stopping %s: %w", h.Component, err))
				continue
			}
			log.Infow("component stopped", "component", h.Component, "took", time.Since(start))
		}

		if errs != nil {
			log.Errorw("market daemon stopped with errors", "error", errs)
		} else {
			log.Info("market daemon stopped")
		}

		_ = log.Sync() //nolint:errcheck
		close(out)
	}()

	return out
}
