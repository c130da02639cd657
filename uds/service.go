package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/svc"
)

// Service serves line commands on a unix socket for local administration
type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	mu         sync.Mutex         // guards state
	state      int                // internal service state
	done       chan error         // Shutdown Error Channel
	SocketPath string
	Commands   CommandStore
	listener   net.Listener
	conns      sync.WaitGroup
	logger     *zap.Logger
}

// Ensure Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func (s *Service) Name() string {
	return "UDSService"
}

func NewService(parentCtx context.Context, sockPath string, commands CommandStore, logger *zap.Logger) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		Commands:   commands,
		logger:     logger.Named("uds"),
	}
}

// Start the unix socket service in the background.
// Bootstrapping errors are returned immediately.
// Runtime errors are pushed into Done().
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	// clean up old socket if any
	_ = os.Remove(s.SocketPath)
	listener, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.SocketPath, err)
	}
	s.listener = listener
	// tighten permissions immediately after binding
	if err = os.Chmod(s.SocketPath, 0600); err != nil {
		_ = s.listener.Close()
		_ = os.Remove(s.SocketPath)
		return fmt.Errorf("chmod(%q) failed: %w", s.SocketPath, err)
	}
	s.state = svc.StateRUNNING
	go s.run()
	return nil
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
	s.logger.Info("service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

// run - internal run loop
func (s *Service) run() {
	// goroutine to clean up when context is done
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-s.Ctx.Done()
		s.logger.Info("stopping")
		if err := s.listener.Close(); err != nil {
			s.logger.Error("cannot close listener", zap.Error(err))
		}
		// To avoid TOCTOU race, just try removing before checking if it exists.
		if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
			s.logger.Error("cannot remove socket file", zap.Error(err))
		}
	}()

	// --- Serving loop ---
	s.logger.Info("listening", zap.String("socket", s.SocketPath))
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				<-stopped
				s.conns.Wait()
				s.logger.Info("socket closed")
				s.done <- nil // also a clean shutdown
				return
			}
			// For transient errors, don't kill the loop
			s.logger.Error("accept failed", zap.Error(err))
			continue
		}
		s.logger.Debug("new connection")
		s.conns.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Service) handleConn(c net.Conn) {
	defer s.conns.Done()
	stop := context.AfterFunc(s.Ctx, func() { _ = c.Close() })
	defer stop()

	defer func() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("closing connection", zap.Error(err))
		}
	}()

	reader := bufio.NewReader(io.LimitReader(c, 1<<20)) // 1 MB max per connection

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.logger.Debug("client disconnected")
			} else {
				s.logger.Error("read error", zap.Error(err))
			}
			return
		}
		line = strings.TrimSpace(line)
		cmdStr, args := parseLine(line)
		switch cmdStr {
		case "":
			continue
		case "quit":
			return
		case "help":
			s.writeHelp(c)
			continue
		}
		// look it up in the command map
		cmdHnd, ok := s.Commands[cmdStr]
		if !ok {
			_, _ = fmt.Fprintf(c, "unknown command: %s\n", cmdStr)
			continue // give another chance
		}
		s.logger.Info("requested command", zap.String("line", line))
		if err = cmdHnd.Fn(s.Ctx, args, c); err != nil {
			s.logger.Error("command failed", zap.String("command", cmdStr), zap.Error(err))
			_, _ = fmt.Fprintf(c, "error: %v\n", err)
		}
	}
}

func (s *Service) writeHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintf(w, "%-24s %s\n", "help", "list commands")
	_, _ = fmt.Fprintf(w, "%-24s %s\n", "quit", "close this connection")
	for _, key := range s.Commands.Keys() {
		cmd := s.Commands[key]
		usage := key
		if cmd.Usage != "" {
			usage = cmd.Usage
		}
		_, _ = fmt.Fprintf(w, "%-24s %s\n", usage, cmd.Desc)
	}
	_, _ = fmt.Fprintln(w, "")
}
