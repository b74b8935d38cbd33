package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tracklift/internal/bridge"
	"tracklift/internal/logging"
	"tracklift/internal/progress"
)

// Option configures the client.
type Option func(*Client)

// WithProbe injects the availability check run before each spawn attempt.
func WithProbe(probe func() error) Option {
	return func(c *Client) {
		c.probe = probe
	}
}

// Client exposes the worker's function surface over the bridge.
type Client struct {
	bridge *bridge.Bridge
	logger *slog.Logger
	probe  func() error
}

// New constructs a client. Without WithProbe the worker is assumed
// available and failures surface from the spawn itself.
func New(b *bridge.Bridge, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		bridge: b,
		logger: logging.WithComponent(logger, "extractor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe reports synchronously whether the worker interface is usable.
func (c *Client) Probe() error {
	if c.probe == nil {
		return nil
	}
	if err := c.probe(); err != nil {
		if _, ok := err.(*UnavailableError); ok {
			return err
		}
		return &UnavailableError{Reason: err.Error()}
	}
	return nil
}

// SubscribeProgress registers handler for the operation's progress events.
func (c *Client) SubscribeProgress(operationID string, handler progress.Handler) func() {
	return c.bridge.Hub().Subscribe(operationID, handler)
}

// AnalyzeFile inspects one media file and reports its track inventory.
func (c *Client) AnalyzeFile(ctx context.Context, path string) (*AnalyzeResult, error) {
	var result AnalyzeResult
	if err := c.call(ctx, FuncAnalyzeFile, path, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindMediaFiles expands the given paths into the media files beneath them.
func (c *Client) FindMediaFiles(ctx context.Context, paths []string) (*FindResult, error) {
	var result FindResult
	if err := c.call(ctx, FuncFindMediaFiles, [][]string{paths}, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractTracks runs a single-file extraction. An empty OperationID is
// replaced with a generated one; the effective id is returned so callers
// can subscribe before or while the worker runs.
func (c *Client) ExtractTracks(ctx context.Context, req ExtractRequest) (*ExtractResult, string, error) {
	inv, err := c.StartExtract(ctx, req)
	if err != nil {
		return nil, req.OperationID, err
	}
	raw, err := inv.Wait(ctx)
	if err != nil {
		return nil, inv.OperationID, err
	}
	var result ExtractResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, inv.OperationID, fmt.Errorf("decode %s result: %w", FuncExtractTracks, err)
	}
	return &result, inv.OperationID, nil
}

// StartExtract is ExtractTracks without waiting; it returns the running
// invocation for callers that manage completion themselves.
func (c *Client) StartExtract(ctx context.Context, req ExtractRequest) (*bridge.Invocation, error) {
	if err := c.Probe(); err != nil {
		return nil, err
	}
	operationID := req.OperationID
	if operationID == "" {
		operationID = uuid.NewString()
	}
	req.OperationID = operationID
	options := bridge.SnakeKeys(map[string]any{
		"filePath":        req.FilePath,
		"outputDir":       req.OutputDir,
		"languages":       req.Languages,
		"audioOnly":       req.AudioOnly,
		"subtitleOnly":    req.SubtitleOnly,
		"includeVideo":    req.IncludeVideo,
		"videoOnly":       req.VideoOnly,
		"removeLetterbox": req.RemoveLetterbox,
		"operationId":     operationID,
	})
	return c.bridge.Start(ctx, FuncExtractTracks, options, operationID), nil
}

// BatchExtract runs a multi-file extraction under one operation id.
func (c *Client) BatchExtract(ctx context.Context, req BatchRequest) (*BatchResult, string, error) {
	inv, err := c.StartBatch(ctx, req)
	if err != nil {
		return nil, req.OperationID, err
	}
	raw, err := inv.Wait(ctx)
	if err != nil {
		return nil, inv.OperationID, err
	}
	var result BatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, inv.OperationID, fmt.Errorf("decode %s result: %w", FuncBatchExtract, err)
	}
	return &result, inv.OperationID, nil
}

// StartBatch launches a batch extraction without waiting.
func (c *Client) StartBatch(ctx context.Context, req BatchRequest) (*bridge.Invocation, error) {
	if err := c.Probe(); err != nil {
		return nil, err
	}
	operationID := req.OperationID
	if operationID == "" {
		operationID = uuid.NewString()
	}
	options := bridge.SnakeKeys(map[string]any{
		"inputPaths":      req.InputPaths,
		"outputDir":       req.OutputDir,
		"languages":       req.Languages,
		"maxWorkers":      req.MaxWorkers,
		"audioOnly":       req.AudioOnly,
		"subtitleOnly":    req.SubtitleOnly,
		"includeVideo":    req.IncludeVideo,
		"videoOnly":       req.VideoOnly,
		"removeLetterbox": req.RemoveLetterbox,
		"operationId":     operationID,
	})
	return c.bridge.Start(ctx, FuncBatchExtract, options, operationID), nil
}

func (c *Client) call(ctx context.Context, function string, args any, operationID string, out any) error {
	if err := c.Probe(); err != nil {
		return err
	}
	raw, err := c.bridge.Call(ctx, function, args, operationID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", function, err)
	}
	return nil
}
