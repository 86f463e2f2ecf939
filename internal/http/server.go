package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	srv    *nethttp.Server
	lis    net.Listener
	logger *zap.Logger
}

// NewServer binds the port immediately so Addr is valid before Start.
func NewServer(port int, engine *gin.Engine, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return &Server{
		srv: &nethttp.Server{
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
		lis:    lis,
		logger: logger.Named("http-server"),
	}, nil
}

// Start serves in a goroutine and returns immediately.
func (s *Server) Start() {
	s.logger.Info("HTTP server starting", zap.String("addr", s.lis.Addr().String()))
	go func() {
		if err := s.srv.Serve(s.lis); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.srv.Shutdown(ctx)
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
