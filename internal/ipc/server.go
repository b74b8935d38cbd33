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

	"tracklift/internal/daemon"
	"tracklift/internal/extraction"
	"tracklift/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
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
	srv := &service{daemon: d, logger: logging.WithComponent(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Tracklift", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String("socket", s.path))
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
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockPath
	resp.JournalDBPath = status.JournalDBPath
	resp.Stats = map[string]int{
		"total":     status.Stats.Total,
		"pending":   status.Stats.Pending,
		"running":   status.Stats.Running,
		"succeeded": status.Stats.Succeeded,
		"failed":    status.Stats.Failed,
	}
	if status.Active != nil {
		active := convertSnapshot(*status.Active)
		resp.Active = &active
	}
	if len(status.Dependencies) > 0 {
		resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			resp.Dependencies = append(resp.Dependencies, DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			})
		}
	}
	return nil
}

func (s *service) Analyze(req AnalyzeRequest, resp *AnalyzeResponse) error {
	if req.Path == "" {
		return errors.New("analyze requires a file path")
	}
	result, err := s.daemon.Analyze(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Result = *result
	return nil
}

func (s *service) Find(req FindRequest, resp *FindResponse) error {
	if len(req.Paths) == 0 {
		return errors.New("find requires at least one path")
	}
	result, err := s.daemon.Find(s.ctx, req.Paths)
	if err != nil {
		return err
	}
	resp.Files = result.Files
	resp.Count = result.Count
	return nil
}

func (s *service) SubmitExtract(req SubmitExtractRequest, resp *SubmitExtractResponse) error {
	if req.Source == "" {
		return errors.New("extract requires a source path")
	}
	id, err := s.daemon.SubmitExtract(s.ctx, daemon.ExtractSubmission{
		Source:          req.Source,
		OutputDir:       req.OutputDir,
		Languages:       req.Languages,
		AudioOnly:       req.AudioOnly,
		SubtitleOnly:    req.SubtitleOnly,
		VideoOnly:       req.VideoOnly,
		IncludeVideo:    req.IncludeVideo,
		RemoveLetterbox: req.RemoveLetterbox,
	})
	if err != nil {
		return err
	}
	resp.OperationID = id
	s.logger.Info("extraction submitted via IPC", logging.String(logging.FieldOperationID, id))
	return nil
}

func (s *service) SubmitBatch(req SubmitBatchRequest, resp *SubmitBatchResponse) error {
	if len(req.InputPaths) == 0 {
		return errors.New("batch requires at least one input path")
	}
	id, err := s.daemon.SubmitBatch(s.ctx, daemon.BatchSubmission{
		InputPaths:      req.InputPaths,
		OutputDir:       req.OutputDir,
		Languages:       req.Languages,
		MaxWorkers:      req.MaxWorkers,
		AudioOnly:       req.AudioOnly,
		SubtitleOnly:    req.SubtitleOnly,
		VideoOnly:       req.VideoOnly,
		IncludeVideo:    req.IncludeVideo,
		RemoveLetterbox: req.RemoveLetterbox,
	})
	if err != nil {
		return err
	}
	resp.OperationID = id
	s.logger.Info("batch submitted via IPC", logging.String(logging.FieldOperationID, id))
	return nil
}

func (s *service) Progress(req ProgressRequest, resp *ProgressResponse) error {
	if req.OperationID == "" {
		return errors.New("progress requires an operation id")
	}
	snap, ok := s.daemon.Progress(req.OperationID)
	resp.Found = ok
	if ok {
		resp.Progress = convertSnapshot(snap)
	}
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	if req.OperationID == "" {
		return errors.New("cancel requires an operation id")
	}
	resp.Canceled = s.daemon.Cancel(req.OperationID)
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	ops, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Operations = make([]OperationSummary, 0, len(ops))
	for _, op := range ops {
		if op == nil {
			continue
		}
		resp.Operations = append(resp.Operations, SummarizeOperation(op))
	}
	return nil
}

func convertSnapshot(snap extraction.Snapshot) OperationProgress {
	prog := OperationProgress{
		OperationID:    snap.OperationID,
		Mode:           snap.Mode.String(),
		State:          snap.State.String(),
		Percent:        snap.Percent,
		Status:         snap.Status,
		TotalFiles:     snap.TotalFiles,
		CompletedFiles: snap.CompletedFiles,
		ActiveWorkers:  snap.ActiveWorkers,
		Error:          snap.Error,
	}
	if len(snap.Files) > 0 {
		prog.Files = make([]FileProgress, 0, len(snap.Files))
		for _, file := range snap.Files {
			prog.Files = append(prog.Files, FileProgress{
				Index:    file.Index,
				FileName: file.FileName,
				Percent:  file.Percent,
				Status:   file.Status,
				WorkerID: file.WorkerID,
			})
		}
	}
	return prog
}
