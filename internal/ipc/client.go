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

// Ping verifies the daemon is answering.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Printwatch.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Printwatch.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health runs a health probe and returns the snapshot.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.client.Call("Printwatch.Health", HealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fix runs the recovery pipeline.
func (c *Client) Fix() (*FixResponse, error) {
	var resp FixResponse
	if err := c.client.Call("Printwatch.Fix", FixRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DisableDiscovery turns off the auto-discovery helper.
func (c *Client) DisableDiscovery() (*DisableDiscoveryResponse, error) {
	var resp DisableDiscoveryResponse
	if err := c.client.Call("Printwatch.DisableDiscovery", DisableDiscoveryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrinterList enumerates configured queues.
func (c *Client) PrinterList() (*PrinterListResponse, error) {
	var resp PrinterListResponse
	if err := c.client.Call("Printwatch.PrinterList", PrinterListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrinterDescribe fetches a single queue by name.
func (c *Client) PrinterDescribe(name string) (*PrinterDescribeResponse, error) {
	var resp PrinterDescribeResponse
	if err := c.client.Call("Printwatch.PrinterDescribe", PrinterDescribeRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestPrint submits a test page to a queue.
func (c *Client) TestPrint(name string) (*TestPrintResponse, error) {
	var resp TestPrintResponse
	if err := c.client.Call("Printwatch.TestPrint", TestPrintRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrinterDelete removes a queue.
func (c *Client) PrinterDelete(name string) (*PrinterDeleteResponse, error) {
	var resp PrinterDeleteResponse
	if err := c.client.Call("Printwatch.PrinterDelete", PrinterDeleteRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DriverSearch filters the driver database by keyword.
func (c *Client) DriverSearch(keyword string) (*DriverSearchResponse, error) {
	var resp DriverSearchResponse
	if err := c.client.Call("Printwatch.DriverSearch", DriverSearchRequest{Keyword: keyword}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Install configures a queue for a model, optionally with an explicit
// driver.
func (c *Client) Install(model, driver string) (*InstallResponse, error) {
	var resp InstallResponse
	if err := c.client.Call("Printwatch.Install", InstallRequest{Model: model, Driver: driver}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList fetches recorded events, newest first.
func (c *Client) HistoryList(limit int) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.client.Call("Printwatch.HistoryList", HistoryListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
