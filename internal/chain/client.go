package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	jsonRPCVersion = "2.0"
	maxErrorBody   = 512
)

// Client wraps a NEAR JSON-RPC endpoint.
type Client struct {
	endpoint string
	http     *resty.Client
	limiter  *rate.Limiter
	timeout  time.Duration
	nextID   atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit caps outgoing requests per second. Non-positive rps disables
// the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(rpcURL string, opts ...Option) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	u, err := url.Parse(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rpc url must be http or https: %s", rpcURL)
	}

	c := &Client{
		endpoint: rpcURL,
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if c.timeout > 0 {
		c.http.SetTimeout(c.timeout)
	}

	return c, nil
}

// Endpoint returns the RPC URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.http != nil {
		c.http.GetClient().CloseIdleConnections()
	}
}

// Status returns the node status.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.call(ctx, "status", []interface{}{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Block returns the block selected by ref.
func (c *Client) Block(ctx context.Context, ref BlockReference) (*Block, error) {
	var block Block
	if err := c.call(ctx, "block", ref, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Chunk returns the chunk with the given hash.
func (c *Client) Chunk(ctx context.Context, chunkHash string) (*Chunk, error) {
	if err := ValidateHash(chunkHash); err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	params := map[string]string{"chunk_id": chunkHash}
	var chunk Chunk
	if err := c.call(ctx, "chunk", params, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// TxStatus returns the execution status of a transaction, waiting on the
// node side until waitUntil is reached.
func (c *Client) TxStatus(ctx context.Context, txHash, senderID, waitUntil string) (*TxStatus, error) {
	if err := ValidateHash(txHash); err != nil {
		return nil, fmt.Errorf("tx: %w", err)
	}
	if waitUntil == "" {
		waitUntil = WaitFinal
	}

	params := map[string]string{
		"tx_hash":           txHash,
		"sender_account_id": senderID,
		"wait_until":        waitUntil,
	}
	var status TxStatus
	if err := c.call(ctx, "tx", params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: wait rate limit: %w", method, err)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: jsonRPCVersion,
		ID:      strconv.FormatUint(c.nextID.Add(1), 10),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", method, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var envelope rpcResponse
	decodeErr := json.Unmarshal(resp.Body(), &envelope)
	if decodeErr == nil && envelope.Error != nil {
		envelope.Error.Method = method
		if resp.IsError() {
			return &StatusError{Method: method, StatusCode: resp.StatusCode(), Err: envelope.Error}
		}
		return envelope.Error
	}
	if resp.IsError() {
		return &StatusError{Method: method, StatusCode: resp.StatusCode(), Body: truncate(string(resp.Body()))}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: decode response: %w", method, decodeErr)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
