package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Dhoini/Subscription-ledger/config"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Server HTTP-сервер REST API
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer создает новый HTTP-сервер
func NewServer(cfg *config.Config, router *gin.Engine, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.App.Port,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.App.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.App.WriteTimeout) * time.Second,
		},
		log: log,
	}
}

// Run запускает HTTP-сервер и блокируется до его остановки
func (s *Server) Run() error {
	s.log.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь завершения активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
