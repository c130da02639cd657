package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/svc"
)

const DefaultShutdownTimeout = 10 * time.Second

// Service runs an http.Server until its context is cancelled, then shuts it down gracefully
type Service struct {
	Ctx             context.Context    // Service Context
	cancel          context.CancelFunc // Service Context CancelFunc
	mu              sync.Mutex         // guards state
	state           int                // internal service state
	done            chan error         // Shutdown Error Channel
	Server          *http.Server
	ShutdownTimeout time.Duration
	listener        net.Listener
	logger          *zap.Logger
}

// Ensure Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler, logger *zap.Logger) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return svcCtx },
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
		ShutdownTimeout: DefaultShutdownTimeout,
		logger:          logger.Named("web"),
	}
}

func (s *Service) Name() string {
	return "WebService"
}

// Start binds the listen address, so a port in use fails here
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.Server.Addr, err)
	}
	s.listener = ln
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

// Addr is the bound address, useful with ":0"
func (s *Service) Addr() string {
	if s.listener == nil {
		return s.Server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateRUNNING {
		s.logger.Error("cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
}

func (s *Service) Done() <-chan error {
	return s.done
}

func (s *Service) run() {
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.Addr()))
		if err := s.Server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		// the server died on its own
		s.cancel()
		s.done <- err
		return
	case <-s.Ctx.Done():
	}

	// Shutdown stops accepting immediately; in-flight requests get ShutdownTimeout to finish
	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	err := s.Server.Shutdown(ctx)
	if err != nil {
		s.logger.Error("server shutdown failed", zap.Error(err))
	}
	if serr := <-serveErr; serr != nil {
		err = serr
	}
	s.logger.Info("shutdown complete")
	s.done <- err
}
