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

// Add registers a URL for downloading.
func (c *Client) Add(url string) (*AddResponse, error) {
	var resp AddResponse
	if err := c.client.Call("Snag.Add", AddRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddPlaylist expands a playlist URL into jobs.
func (c *Client) AddPlaylist(url string) (*AddPlaylistResponse, error) {
	var resp AddPlaylistResponse
	if err := c.client.Call("Snag.AddPlaylist", AddPlaylistRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns jobs optionally filtered by status names.
func (c *Client) List(statuses []string) (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Snag.List", ListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Describe returns details for a single job, including its formats.
func (c *Client) Describe(id string) (*DescribeResponse, error) {
	var resp DescribeResponse
	if err := c.client.Call("Snag.Describe", DescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start queues a download for a ready job.
func (c *Client) Start(id, formatID string) (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Snag.Start", StartRequest{ID: id, FormatID: formatID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel cancels a job.
func (c *Client) Cancel(id string) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("Snag.Cancel", CancelRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remove deletes a job row.
func (c *Client) Remove(id string) (*RemoveResponse, error) {
	var resp RemoveResponse
	if err := c.client.Call("Snag.Remove", RemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear removes terminal jobs, or all jobs when all is set.
func (c *Client) Clear(all bool) (*ClearResponse, error) {
	var resp ClearResponse
	if err := c.client.Call("Snag.Clear", ClearRequest{All: all}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Concurrency resizes the download permit pool.
func (c *Client) Concurrency(limit int) (*ConcurrencyResponse, error) {
	var resp ConcurrencyResponse
	if err := c.client.Call("Snag.Concurrency", ConcurrencyRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Snag.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopDaemon asks the daemon process to shut down.
func (c *Client) StopDaemon() (*StopDaemonResponse, error) {
	var resp StopDaemonResponse
	if err := c.client.Call("Snag.StopDaemon", StopDaemonRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
