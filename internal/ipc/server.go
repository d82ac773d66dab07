package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"github.com/google/uuid"

	"snag/internal/daemon"
	"snag/internal/logging"
	"snag/internal/queue"
)

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

// NewServer configures the IPC server at the given socket path. onStop is
// invoked when a client requests daemon shutdown; it must not block.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, onStop func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx, onStop: onStop}
	if err := rpcServer.RegisterName("Snag", srv); err != nil {
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
			logging.String("socket", s.path), logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
	onStop func()
}

func parseJobID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}

func (s *service) Add(req AddRequest, resp *AddResponse) error {
	job, err := s.daemon.Add(s.ctx, req.URL)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job, false)
	return nil
}

func (s *service) AddPlaylist(req AddPlaylistRequest, resp *AddPlaylistResponse) error {
	if err := s.daemon.AddPlaylist(s.ctx, req.URL); err != nil {
		return err
	}
	resp.Accepted = true
	return nil
}

func (s *service) List(req ListRequest, resp *ListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		parsed, ok := queue.ParseStatus(raw)
		if !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
		statuses = append(statuses, parsed)
	}
	jobs, err := s.daemon.ListJobs(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Jobs = make([]Job, 0, len(jobs))
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, FromJob(job, false))
	}
	return nil
}

func (s *service) Describe(req DescribeRequest, resp *DescribeResponse) error {
	id, err := parseJobID(req.ID)
	if err != nil {
		return err
	}
	job, err := s.daemon.GetJob(s.ctx, id)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job, true)
	return nil
}

func (s *service) Start(req StartRequest, resp *StartResponse) error {
	id, err := parseJobID(req.ID)
	if err != nil {
		return err
	}
	job, err := s.daemon.StartDownload(s.ctx, id, req.FormatID)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job, false)
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	id, err := parseJobID(req.ID)
	if err != nil {
		return err
	}
	job, err := s.daemon.Cancel(s.ctx, id)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job, false)
	return nil
}

func (s *service) Remove(req RemoveRequest, resp *RemoveResponse) error {
	id, err := parseJobID(req.ID)
	if err != nil {
		return err
	}
	if err := s.daemon.RemoveJob(s.ctx, id); err != nil {
		return err
	}
	resp.Removed = true
	return nil
}

func (s *service) Clear(req ClearRequest, resp *ClearResponse) error {
	var removed int64
	var err error
	if req.All {
		removed, err = s.daemon.ClearAll(s.ctx)
	} else {
		removed, err = s.daemon.ClearTerminal(s.ctx)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("jobs cleared", logging.Int64("removed", removed), logging.Bool("all", req.All))
	return nil
}

func (s *service) Concurrency(req ConcurrencyRequest, resp *ConcurrencyResponse) error {
	limit, err := s.daemon.SetConcurrency(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Limit = limit
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.ActiveDownloads = status.ActiveDownloads
	resp.Concurrency = status.Concurrency
	resp.JobDBPath = status.JobDBPath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.PID = status.PID
	resp.JobCounts = map[string]int{
		string(queue.StatusFetching):    status.Counts.Fetching,
		string(queue.StatusReady):       status.Counts.Ready,
		string(queue.StatusQueued):      status.Counts.Queued,
		string(queue.StatusDownloading): status.Counts.Downloading,
		string(queue.StatusCompleted):   status.Counts.Completed,
		string(queue.StatusFailed):      status.Counts.Failed,
		string(queue.StatusCancelled):   status.Counts.Cancelled,
	}
	return nil
}

func (s *service) StopDaemon(_ StopDaemonRequest, resp *StopDaemonResponse) error {
	s.logger.Info("daemon stop requested via IPC")
	if s.onStop != nil {
		s.onStop()
	}
	resp.Stopped = true
	return nil
}
