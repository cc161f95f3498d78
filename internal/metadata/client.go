// Package metadata retrieves the off-chain JSON document of a token.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
)

var _ ports.MetadataClient = (*Client)(nil)

const ipfsScheme = "ipfs://"

type Client struct {
	logger  *slog.Logger
	client  *resty.Client
	gateway string
}

// NewClient creates a metadata client. gateway is used to resolve ipfs://
// URIs and may be empty.
func NewClient(logger *slog.Logger, gateway string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = ports.DefaultRequestTimeout
	}

	return &Client{
		logger:  logger,
		client:  resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		gateway: strings.TrimRight(gateway, "/"),
	}
}

// Fetch downloads and decodes the metadata document. Gateways often serve
// JSON as text/plain, so the body is decoded regardless of content type.
func (c *Client) Fetch(ctx context.Context, uri string) (*entities.TokenMetadata, error) {
	url := c.Resolve(uri)

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("metadata %s returned status %d", url, resp.StatusCode())
	}

	var md entities.TokenMetadata
	if err = json.Unmarshal(resp.Body(), &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata %s: %w", url, err)
	}

	c.logger.DebugContext(ctx, "Metadata fetched", "uri", uri, "name", md.Name)
	return &md, nil
}

// Resolve maps ipfs:// URIs onto the gateway and leaves other URIs alone.
func (c *Client) Resolve(uri string) string {
	if c.gateway == "" || !strings.HasPrefix(uri, ipfsScheme) {
		return uri
	}

	path := strings.TrimPrefix(strings.TrimPrefix(uri, ipfsScheme), "ipfs/")
	return c.gateway + "/" + path
}
