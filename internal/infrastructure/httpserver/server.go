package httpserver

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
}

func New(address string, handler http.Handler, logger logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Infof("server starting address=%s", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
