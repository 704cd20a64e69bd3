// shared/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hackbits/registration-service/shared/logger"
)

// BaseServer bundles the router and the HTTP server with the middleware
// every service endpoint shares.
type BaseServer struct {
	Router *mux.Router
	Server *http.Server
	Logger *logger.Logger
}

// NewBaseServer builds the server with logging and CORS middleware applied.
func NewBaseServer(addr string, log *logger.Logger) *BaseServer {
	router := mux.NewRouter()

	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &BaseServer{
		Router: router,
		Server: server,
		Logger: log,
	}
}

// Start blocks serving HTTP until shutdown or failure.
func (bs *BaseServer) Start() error {
	bs.Logger.Infow("starting HTTP server", "addr", bs.Server.Addr)
	if err := bs.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (bs *BaseServer) Shutdown(ctx context.Context) error {
	bs.Logger.Info("shutting down HTTP server")
	return bs.Server.Shutdown(ctx)
}
