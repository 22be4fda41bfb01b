package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"ps3/internal/api"
	"ps3/internal/config"
	"ps3/internal/logging"
	"ps3/internal/runtime"
	"ps3/internal/sandbox"
	"ps3/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to service config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.LogFormat, os.Stdout)

	backend, registry, err := buildBackend(cfg)
	if err != nil {
		logger.Error("startup failed: storage backend", "error", err)
		os.Exit(1)
	}
	facade, err := storage.NewFacade(backend)
	if err != nil {
		logger.Error("startup failed: storage facade", "error", err)
		os.Exit(1)
	}
	if err := facade.Init(context.Background()); err != nil {
		logger.Error("startup failed: storage init", "error", err)
		os.Exit(1)
	}

	svc := &api.Service{
		Storage:  facade,
		Registry: registry,
		Logger:   logger,
	}

	srv, err := runtime.New(cfg, svc.Handler(), logger)
	if err != nil {
		logger.Error("startup failed: server init", "error", err)
		os.Exit(1)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			logger.Error("graceful shutdown failed", "error", shutdownErr)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.ListenAddress, "backend", cfg.Storage.Backend)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildBackend constructs the configured storage backend. For the memory
// backend it also builds and configures the sandbox registry so tests can
// run isolated from one another on a single process; registry is nil for
// the filesystem backend, which has no notion of sandboxing.
func buildBackend(cfg config.Config) (storage.Backend, *sandbox.Registry, error) {
	switch storage.BackendName(cfg.Storage.Backend) {
	case storage.BackendFilesystem:
		if err := runtime.EnsureStorageAvailable(cfg.Storage.Root); err != nil {
			return nil, nil, err
		}
		return storage.NewFSBackend(cfg.Storage.Root), nil, nil
	case storage.BackendMemory:
		registry := sandbox.NewRegistry()
		mode, owner := config.ParseSandboxMode(cfg.Storage.MemorySandboxMode)
		if err := applySandboxMode(registry, mode, owner); err != nil {
			return nil, nil, err
		}
		return storage.NewMemoryBackend(registry), registry, nil
	default:
		return nil, nil, storage.ErrInvalidBackend
	}
}

func applySandboxMode(registry *sandbox.Registry, mode, owner string) error {
	switch strings.ToLower(mode) {
	case "", "off":
		return registry.SetMode(sandbox.Mode{Kind: sandbox.ModeOff})
	case "auto":
		return registry.SetMode(sandbox.Mode{Kind: sandbox.ModeAuto})
	case "manual":
		return registry.SetMode(sandbox.Mode{Kind: sandbox.ModeManual})
	case "shared":
		id := sandbox.NewTaskID()
		if err := registry.Checkout(id); err != nil {
			return err
		}
		return registry.SetMode(sandbox.Mode{Kind: sandbox.ModeShared, SharedOwner: id})
	default:
		return registry.SetMode(sandbox.Mode{Kind: sandbox.ModeOff})
	}
}
