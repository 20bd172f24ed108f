// Package ledger wraps the external "record permanently" call behind a
// receipt-or-failure contract. A failed or cancelled call never produces a
// partial result; re-recording the same item is safe and yields a fresh
// receipt.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Recorder records an item on the ledger and returns an opaque receipt.
type Recorder interface {
	Record(ctx context.Context, it item.Item) (string, error)
}

// Simulated mimics the external network call: a fixed delay followed by a
// freshly generated receipt. It honours context cancellation, reporting it
// as an unavailable ledger so callers abort cleanly.
type Simulated struct {
	delay time.Duration
	log   *logger.Logger
}

// NewSimulated builds a simulated recorder. A non-positive delay defaults to
// two seconds, matching the nominal latency of the real integration.
func NewSimulated(delay time.Duration, log *logger.Logger) *Simulated {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("ledger-simulated")
	}
	return &Simulated{delay: delay, log: log}
}

func (s *Simulated) Record(ctx context.Context, it item.Item) (string, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", apperrors.LedgerUnavailable("ledger record cancelled", ctx.Err())
	case <-timer.C:
	}

	receipt := newReceipt()
	s.log.Infof("item %s recorded, receipt %s", it.ID, receipt)
	return receipt, nil
}

// newReceipt generates a 0x-prefixed 64-hex-character transaction hash.
func newReceipt() string {
	raw := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return "0x" + raw
}

// RPC records items through a JSON-RPC endpoint with a bounded timeout.
// Timeouts and transport faults surface as an unavailable ledger, distinct
// from a hard failure.
type RPC struct {
	client   *http.Client
	endpoint *url.URL
	apiKey   string
	log      *logger.Logger
}

// RPCConfig configures the RPC recorder.
type RPCConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// NewRPC constructs a recorder against the configured endpoint.
func NewRPC(cfg RPCConfig, log *logger.Logger) (*RPC, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("ledger endpoint required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse ledger endpoint: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("ledger-rpc")
	}
	return &RPC{
		client:   &http.Client{Timeout: timeout},
		endpoint: parsed,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		log:      log,
	}, nil
}

func (r *RPC) Record(ctx context.Context, it item.Item) (string, error) {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  "recorditem",
		"params": map[string]string{
			"item_id":    it.ID,
			"owner_id":   it.OwnerID,
			"name":       it.Name,
			"tech_stack": it.TechStack,
			"repo_url":   it.RepoURL,
		},
		"id": 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal record request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build record request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", apperrors.LedgerUnavailable("ledger record request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.LedgerUnavailable(fmt.Sprintf("ledger status %d", resp.StatusCode), nil)
	}

	var rpcResp struct {
		Result struct {
			Receipt string `json:"receipt"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", apperrors.LedgerUnavailable("decode ledger response", err)
	}
	if rpcResp.Error != nil {
		return "", apperrors.LedgerUnavailable(fmt.Sprintf("ledger error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message), nil)
	}
	if rpcResp.Result.Receipt == "" {
		return "", apperrors.LedgerUnavailable("ledger returned empty receipt", nil)
	}

	r.log.Infof("item %s recorded, receipt %s", it.ID, rpcResp.Result.Receipt)
	return rpcResp.Result.Receipt, nil
}
