package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"todo-list/internal/cli"
	"todo-list/internal/config"
	"todo-list/internal/logging"
	"todo-list/internal/manager"
	"todo-list/internal/metrics"
	"todo-list/internal/observer"
	"todo-list/internal/store"
	"todo-list/internal/validation"
	"todo-list/internal/viewmodel"
)

func main() {
	// Reconfigured from the loaded config once flags are parsed.
	logger := logging.New(logging.Settings{})
	errorHandler := cli.NewErrorHandler(logger)

	root := cli.NewRootCommand(config.NewLoader(), openApp(logger), errorHandler)
	if err := root.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errorHandler.ExitCode(err))
	}
}

// openApp wires storage, observation and the view-model for one invocation.
// A store that cannot be loaded ends the process.
func openApp(logger *logrus.Logger) cli.Opener {
	return func(ctx context.Context, cfg *config.Config) (*cli.App, error) {
		logging.Configure(logger, logging.Settings{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})

		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		env := config.GetEnvironment()
		log := logger.WithFields(logrus.Fields{
			"env":  env,
			"path": cfg.GetDatabasePath(),
		})

		repo, err := config.NewRepositoryFactory(env, cfg).CreateRepository()
		if err != nil {
			log.WithError(err).Fatal("Failed to open task database")
		}
		s, err := store.Open(ctx, repo, store.Options{Logger: logger, Metrics: m})
		if err != nil {
			log.WithError(err).Fatal("Failed to load task store")
		}
		log.Debug("Task store loaded")

		obs := observer.New(s.Context(), observer.Options{Logger: logger})
		mgr := manager.New(s, obs, logger, m)

		vm, err := viewmodel.New(ctx, mgr, validation.NewTaskValidatorWithConfig(cfg), viewmodel.Options{
			Logger:  logger,
			Metrics: m,
			Buffer:  cfg.Events.Buffer,
		})
		if err != nil {
			obs.Close()
			s.Close()
			return nil, err
		}

		app := cli.NewApp(vm, cfg, registry)
		app.OnClose(func() {
			if err := s.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close task store")
			}
		})
		app.OnClose(obs.Close)
		app.OnClose(vm.Close)
		return app, nil
	}
}
