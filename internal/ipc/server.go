package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"printwatch/internal/logging"
)

// Server exposes the print subsystem via JSON-RPC over a Unix domain socket.
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
func NewServer(ctx context.Context, path string, subsystem Subsystem, logger *slog.Logger) (*Server, error) {
	if subsystem == nil {
		return nil, errors.New("ipc server requires a subsystem")
	}
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
	srv := &service{subsystem: subsystem, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Printwatch", srv); err != nil {
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

// Path returns the socket location.
func (s *Server) Path() string {
	return s.path
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
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
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	subsystem Subsystem
	logger    *slog.Logger
	ctx       context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.subsystem.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Status = status
	return nil
}

func (s *service) Health(_ HealthRequest, resp *HealthResponse) error {
	health, err := s.subsystem.Health(s.ctx)
	if err != nil {
		return err
	}
	resp.Health = health
	return nil
}

func (s *service) Fix(_ FixRequest, resp *FixResponse) error {
	s.log().Debug("recovery requested")
	fixed, steps, err := s.subsystem.Fix(s.ctx)
	if err != nil {
		return err
	}
	resp.Fixed = fixed
	resp.Steps = steps
	s.log().Info("recovery finished",
		logging.String(logging.FieldEventType, "recovery_run"),
		logging.Bool("fixed", fixed))
	return nil
}

func (s *service) DisableDiscovery(_ DisableDiscoveryRequest, resp *DisableDiscoveryResponse) error {
	disabled, message, err := s.subsystem.DisableDiscovery(s.ctx)
	if err != nil {
		return err
	}
	resp.Disabled = disabled
	resp.Message = message
	return nil
}

func (s *service) PrinterList(_ PrinterListRequest, resp *PrinterListResponse) error {
	printers, err := s.subsystem.Printers(s.ctx)
	if err != nil {
		return err
	}
	resp.Printers = printers
	return nil
}

func (s *service) PrinterDescribe(req PrinterDescribeRequest, resp *PrinterDescribeResponse) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errors.New("printer name is required")
	}
	detail, err := s.subsystem.Describe(s.ctx, name)
	if err != nil {
		return err
	}
	resp.Detail = detail
	return nil
}

func (s *service) TestPrint(req TestPrintRequest, resp *TestPrintResponse) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errors.New("printer name is required")
	}
	s.log().Debug("test print requested", logging.String(logging.FieldPrinter, name))
	sent, message, err := s.subsystem.TestPrint(s.ctx, name)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}

func (s *service) PrinterDelete(req PrinterDeleteRequest, resp *PrinterDeleteResponse) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errors.New("printer name is required")
	}
	s.log().Debug("printer delete requested", logging.String(logging.FieldPrinter, name))
	deleted, message, err := s.subsystem.DeletePrinter(s.ctx, name)
	if err != nil {
		return err
	}
	resp.Deleted = deleted
	resp.Message = message
	if deleted {
		s.log().Info("printer deleted via IPC",
			logging.String(logging.FieldEventType, "printer_delete"),
			logging.String(logging.FieldPrinter, name))
	}
	return nil
}

func (s *service) DriverSearch(req DriverSearchRequest, resp *DriverSearchResponse) error {
	drivers, err := s.subsystem.SearchDrivers(s.ctx, req.Keyword)
	if err != nil {
		return err
	}
	resp.Drivers = drivers
	return nil
}

func (s *service) Install(req InstallRequest, resp *InstallResponse) error {
	if strings.TrimSpace(req.Model) == "" {
		return errors.New("printer model is required")
	}
	s.log().Debug("install requested",
		logging.String(logging.FieldModel, req.Model),
		logging.String(logging.FieldDriver, req.Driver))
	result, err := s.subsystem.Install(s.ctx, req.Model, req.Driver)
	if err != nil {
		return err
	}
	resp.Result = result
	s.log().Info("install finished via IPC",
		logging.String(logging.FieldEventType, "printer_install"),
		logging.String(logging.FieldPrinter, result.Printer),
		logging.String(logging.FieldDriver, result.Driver))
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	events, err := s.subsystem.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Events = events
	return nil
}
