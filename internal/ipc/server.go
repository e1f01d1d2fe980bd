package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"nudge/internal/logging"
	"nudge/internal/monitor"
	"nudge/internal/notifications"
	"nudge/internal/patterns"
	"nudge/internal/session"
)

// Deps bundles the collaborators the RPC service fronts.
type Deps struct {
	Monitor  *monitor.Monitor
	Sessions *session.Manager
	Analyzer *patterns.Analyzer
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, deps Deps) (*Server, error) {
	if deps.Monitor == nil || deps.Sessions == nil || deps.Analyzer == nil {
		return nil, errors.New("ipc server requires monitor, sessions, and analyzer")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{deps: deps, logger: logging.WithComponent(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Nudge", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	deps   Deps
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("session start requested")
	sess, err := s.deps.Monitor.StartSession(s.ctx)
	if err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.SessionID = sess.ID
	resp.Message = "session started"
	s.logger.Info("session started via IPC", logging.String(logging.FieldSessionID, sess.ID))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("session stop requested")
	sess, path, err := s.deps.Monitor.StopSession(s.ctx)
	if err != nil {
		resp.Stopped = false
		resp.Message = err.Error()
		return nil
	}
	resp.Stopped = true
	resp.SessionID = sess.ID
	resp.ExportPath = path
	resp.Message = "session stopped"
	s.logger.Info("session stopped via IPC",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String("export_path", path))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.deps.Monitor.Status()
	resp.PID = os.Getpid()
	return nil
}

// Export writes the active session to disk, falling back to the most recently
// finished one when no session is running.
func (s *service) Export(_ ExportRequest, resp *ExportResponse) error {
	sess, ok := s.deps.Sessions.Current()
	if !ok {
		sess, ok = s.deps.Sessions.Last()
	}
	if !ok {
		return errors.New("no session to export")
	}
	path, err := s.deps.Sessions.Export(s.ctx, sess)
	if err != nil {
		return err
	}
	resp.SessionID = sess.ID
	resp.Path = path
	return nil
}

func (s *service) Patterns(_ PatternsRequest, resp *PatternsResponse) error {
	resp.Patterns = s.deps.Analyzer.Patterns()
	resp.Insights = s.deps.Analyzer.Insights()
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if s.deps.Notifier == nil {
		return errors.New("notifications unavailable")
	}
	if err := s.deps.Notifier.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "notification sent"
	return nil
}
