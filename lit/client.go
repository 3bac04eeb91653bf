package lit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openweb3-io/pkpkit/types"
)

// Client speaks to one network environment. A single Client is shared
// process-wide; it holds no per-user state. Upstream failures are
// propagated to the caller unchanged, with no retry or backoff.
type Client struct {
	network      Network
	cfg          NetworkConfig
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	log          *zap.SugaredLogger
}

type Option func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(v *http.Client) Option {
	return func(c *Client) {
		c.httpClient = v
	}
}

// WithRelayURL overrides the relay endpoint of the selected network.
func WithRelayURL(v string) Option {
	return func(c *Client) {
		c.cfg.RelayURL = v
	}
}

// WithNodeURL overrides the node gateway endpoint of the selected network.
func WithNodeURL(v string) Option {
	return func(c *Client) {
		c.cfg.NodeURL = v
	}
}

func WithPollInterval(v time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = v
	}
}

func NewClient(network Network, apiKey string, o ...Option) (*Client, error) {
	cfg, err := network.Config()
	if err != nil {
		return nil, err
	}

	c := &Client{
		network:      network,
		cfg:          cfg,
		apiKey:       apiKey,
		httpClient:   http.DefaultClient,
		pollInterval: 500 * time.Millisecond,
		log:          zap.S().With("network", string(network)),
	}
	for _, opt := range o {
		opt(c)
	}
	return c, nil
}

func (c *Client) Network() Network {
	return c.network
}

// RegistryChainID is the chain id session grants reference.
func (c *Client) RegistryChainID() uint64 {
	return c.cfg.RegistryChainID
}

func (c *Client) do(ctx context.Context, method, url string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return errors.Wrap(err, "error encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.WrapErrDetails(types.ErrNetwork, err, map[string]any{
			"url":       url,
			"requestId": requestID,
		})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.WrapErrDetails(types.ErrNetwork, err, map[string]any{
			"url":       url,
			"requestId": requestID,
		})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.WrapErrDetails(types.ErrNetwork,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(data)),
			map[string]any{
				"url":       url,
				"requestId": requestID,
			})
	}
	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return types.WrapErrDetails(types.ErrNetwork, errors.Wrap(err, "error decoding response"), map[string]any{
				"url":       url,
				"requestId": requestID,
			})
		}
	}
	return nil
}
