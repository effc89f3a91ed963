// Package core runs the long-lived parts of the bot (Telegram poller,
// scheduler, ops server) as one lifecycle: validate all, start in order,
// stop in reverse.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

// App manages the lifecycle of a set of components. A component is any
// value implementing at least one of Validator, Starter or Stopper.
type App struct {
	components []instance
	logger     *slog.Logger
}

type instance struct {
	name    string
	value   any
	started bool
}

// NewApp creates an empty App.
func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{logger: logger.With("component", "core")}
}

// Add appends a component. Components start in the order they were added.
func (a *App) Add(name string, c any) {
	a.components = append(a.components, instance{name: name, value: c})
}

// Names returns the component names in start order.
func (a *App) Names() []string {
	names := make([]string, len(a.components))
	for i, c := range a.components {
		names[i] = c.name
	}
	return names
}

// Validate runs every Validator and returns all failures joined.
func (a *App) Validate() error {
	var errs []error
	for _, c := range a.components {
		if v, ok := c.value.(Validator); ok {
			if err := v.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Start starts all components that implement Starter, in order.
// If any Start() fails, already-started components are stopped in reverse order.
func (a *App) Start() error {
	for i := range a.components {
		c := &a.components[i]
		s, ok := c.value.(Starter)
		if !ok {
			c.started = true
			continue
		}
		a.logger.Info("starting component", "name", c.name)
		if err := s.Start(); err != nil {
			a.logger.Error("component start failed", "name", c.name, "error", err)
			a.stopFrom(i - 1)
			return fmt.Errorf("starting %s: %w", c.name, err)
		}
		c.started = true
	}
	a.logger.Info("all components started", "count", len(a.components))
	return nil
}

// Stop stops all started components in reverse order with a timeout.
func (a *App) Stop() {
	a.stopFrom(len(a.components) - 1)
}

func (a *App) stopFrom(index int) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := index; i >= 0; i-- {
		c := &a.components[i]
		if !c.started {
			continue
		}
		if s, ok := c.value.(Stopper); ok {
			a.logger.Info("stopping component", "name", c.name)
			if err := s.Stop(ctx); err != nil {
				a.logger.Error("component stop error", "name", c.name, "error", err)
			}
		}
		c.started = false
	}
}

// Run validates and starts all components, then blocks until ctx is done
// or SIGINT/SIGTERM arrives, and stops them.
func (a *App) Run(ctx context.Context) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	a.Stop()
	a.logger.Info("shutdown complete")
	return nil
}
