package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ps3/internal/config"
)

// Server wraps a plain HTTP server with the ambient timeouts and shutdown
// behavior the rest of the runtime expects.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func New(cfg config.Config, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpServer, logger: logger}, nil
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// EnsureStorageAvailable creates dir if missing and verifies it is
// writable, used at startup before the filesystem backend serves any
// request.
func EnsureStorageAvailable(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("storage root is empty")
	}
	path := filepath.Clean(dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	testPath := filepath.Join(path, ".ready-check")
	if err := os.WriteFile(testPath, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	_ = os.Remove(testPath)
	return nil
}
