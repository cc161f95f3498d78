// Package storage pins content on IPFS through the HTTP RPC API.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ipfs/go-cid"

	"github.com/sand/nft-marketplace/client/config"
	"github.com/sand/nft-marketplace/client/internal/core/ports"
)

var _ ports.Storage = (*IPFS)(nil)

var ErrInvalidCID = errors.New("invalid content identifier")

// addResponse is the body returned by /api/v0/add.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

type IPFS struct {
	logger     *slog.Logger
	client     *resty.Client
	gateway    string
	cidVersion int
}

func NewIPFS(logger *slog.Logger, cfg config.IPFS) *IPFS {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = ports.DefaultRequestTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(timeout)

	if cfg.ProjectID != "" {
		client.SetBasicAuth(cfg.ProjectID, cfg.ProjectSecret)
	}

	return &IPFS{
		logger:     logger,
		client:     client,
		gateway:    strings.TrimRight(cfg.GatewayURL, "/"),
		cidVersion: cfg.CIDVersion,
	}
}

// Add pins data and returns its CID.
func (s *IPFS) Add(ctx context.Context, data []byte) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("pin", "true").
		SetQueryParam("cid-version", strconv.Itoa(s.cidVersion)).
		SetFileReader("file", "file", bytes.NewReader(data)).
		Post("/add")
	if err != nil {
		return "", fmt.Errorf("ipfs add request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ipfs add returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var added addResponse
	if err = json.Unmarshal(resp.Body(), &added); err != nil {
		return "", fmt.Errorf("failed to decode ipfs add response: %w", err)
	}

	if _, err = cid.Decode(added.Hash); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidCID, added.Hash, err)
	}

	s.logger.DebugContext(ctx, "Content pinned", "cid", added.Hash, "size", added.Size)
	return added.Hash, nil
}

// URL joins the gateway host and the identifier.
func (s *IPFS) URL(identifier string) string {
	return s.gateway + "/" + identifier
}
