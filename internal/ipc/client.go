package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks that the daemon is reachable.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Tracklift.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Tracklift.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Tracklift.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analyze inspects a media file's track inventory.
func (c *Client) Analyze(path string) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	if err := c.client.Call("Tracklift.Analyze", AnalyzeRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Find expands the given paths into media files.
func (c *Client) Find(paths []string) (*FindResponse, error) {
	var resp FindResponse
	if err := c.client.Call("Tracklift.Find", FindRequest{Paths: paths}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitExtract launches a background single-file extraction.
func (c *Client) SubmitExtract(req SubmitExtractRequest) (*SubmitExtractResponse, error) {
	var resp SubmitExtractResponse
	if err := c.client.Call("Tracklift.SubmitExtract", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitBatch launches a background batch extraction.
func (c *Client) SubmitBatch(req SubmitBatchRequest) (*SubmitBatchResponse, error) {
	var resp SubmitBatchResponse
	if err := c.client.Call("Tracklift.SubmitBatch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Progress polls a submitted operation for its current snapshot.
func (c *Client) Progress(operationID string) (*ProgressResponse, error) {
	var resp ProgressResponse
	if err := c.client.Call("Tracklift.Progress", ProgressRequest{OperationID: operationID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel force-terminates a running operation's worker.
func (c *Client) Cancel(operationID string) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("Tracklift.Cancel", CancelRequest{OperationID: operationID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches recent journal entries, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Tracklift.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
