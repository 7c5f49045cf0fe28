package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"veritas-data-pipeline/internal/pkg/apperror"
)

const (
	defaultMaxRetries   = 3
	defaultRetryDelay   = 1 * time.Second
	defaultProbeTimeout = 5 * time.Second
	gatewayCacheTTL     = 5 * time.Minute
)

// Config holds the ranked endpoint sets for the content-addressed store.
// APIURLs are write/read API endpoints (e.g. https://ipfs.infura.io:5001/api/v0);
// GatewayURLs are read-only HTTP gateways ranked by preference.
type Config struct {
	APIURLs      []string
	GatewayURLs  []string
	MaxRetries   int
	RetryDelay   time.Duration
	ProbeTimeout time.Duration
}

// Client is a content-addressed store client with multi-endpoint fallback.
// The preferred API endpoint and gateway indices are process-wide per Client
// and mutated atomically; a stale read simply triggers that caller's own
// rotation.
type Client struct {
	apiURLs      []string
	gatewayURLs  []string
	maxRetries   int
	retryDelay   time.Duration
	probeTimeout time.Duration

	apiIndex     atomic.Int32
	gatewayIndex atomic.Int32

	httpClient  *http.Client
	resolvedURL *gocache.Cache
}

func NewClient(cfg Config) (*Client, error) {
	if len(cfg.APIURLs) == 0 {
		return nil, apperror.Configuration("ipfs client requires at least one API endpoint")
	}
	if len(cfg.GatewayURLs) == 0 {
		return nil, apperror.Configuration("ipfs client requires at least one gateway")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}

	return &Client{
		apiURLs:      cfg.APIURLs,
		gatewayURLs:  cfg.GatewayURLs,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		probeTimeout: cfg.ProbeTimeout,
		httpClient:   &http.Client{},
		resolvedURL:  gocache.New(gatewayCacheTTL, 2*gatewayCacheTTL),
	}, nil
}

type addResponse struct {
	Hash string `json:"Hash"`
}

// Store persists content and returns its CID. Attempts rotate round-robin
// across API endpoints with exponential backoff; the retry ceiling counts
// attempts in total, not per endpoint.
func (c *Client) Store(ctx context.Context, content []byte) (string, error) {
	var cid string
	err := c.withRetry(ctx, "store", func(apiURL string) error {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "blob")
		if err != nil {
			return err
		}
		if _, err := part.Write(content); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}

		endpoint := fmt.Sprintf("%s/add?pin=true", apiURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ipfs add failed, code %d, body %s", resp.StatusCode, string(respBytes))
		}

		var addResp addResponse
		if err := json.Unmarshal(respBytes, &addResp); err != nil {
			return err
		}
		if addResp.Hash == "" {
			return fmt.Errorf("ipfs add returned empty hash")
		}

		cid = addResp.Hash
		return nil
	})
	if err != nil {
		return "", err
	}
	return cid, nil
}

// Retrieve fetches content by CID using the same rotation policy as Store.
// Retrieval is content-stable regardless of which endpoint serves it.
func (c *Client) Retrieve(ctx context.Context, cid string) ([]byte, error) {
	var content []byte
	err := c.withRetry(ctx, "retrieve", func(apiURL string) error {
		endpoint := fmt.Sprintf("%s/cat?arg=%s", apiURL, cid)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ipfs cat failed for %s, code %d", cid, resp.StatusCode)
		}

		content = respBytes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// Unpin releases the pin for a CID so the content becomes collectable.
func (c *Client) Unpin(ctx context.Context, cid string) error {
	return c.withRetry(ctx, "unpin", func(apiURL string) error {
		endpoint := fmt.Sprintf("%s/pin/rm?arg=%s", apiURL, cid)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ipfs pin/rm failed for %s, code %d", cid, resp.StatusCode)
		}
		return nil
	})
}

// withRetry runs op against the current preferred endpoint, rotating to the
// next endpoint with exponential backoff on failure. Exhausting all attempts
// yields a storage error carrying the last underlying error.
func (c *Client) withRetry(ctx context.Context, opName string, op func(apiURL string) error) error {
	start := int(c.apiIndex.Load())
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		idx := (start + attempt) % len(c.apiURLs)
		apiURL := c.apiURLs[idx]

		if attempt > 0 {
			delay := c.retryDelay * (1 << (attempt - 1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return apperror.Storage(fmt.Sprintf("ipfs %s canceled", opName), ctx.Err())
			case <-timer.C:
			}
		}

		if err := op(apiURL); err != nil {
			lastErr = err
			log.Printf("[WARN] IPFS %s attempt %d failed on %s: %v", opName, attempt+1, apiURL, err)
			continue
		}

		c.apiIndex.Store(int32(idx))
		return nil
	}

	return apperror.Storage(fmt.Sprintf("ipfs %s failed after %d attempts", opName, c.maxRetries), lastErr)
}

// ResolveGateway returns a gateway URL for the CID. Gateways are probed in
// ranked order with a short-timeout HEAD existence check; the first gateway
// that confirms availability becomes the sticky preferred gateway. When every
// probe fails, the top-ranked gateway URL is returned unconditionally and
// callers must tolerate it being unreachable.
func (c *Client) ResolveGateway(ctx context.Context, cid string) string {
	if cached, ok := c.resolvedURL.Get(cid); ok {
		return cached.(string)
	}

	probeClient := &http.Client{Timeout: c.probeTimeout}
	for i, gatewayURL := range c.gatewayURLs {
		fullURL := fmt.Sprintf("%s/ipfs/%s", gatewayURL, cid)

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, fullURL, nil)
		if err != nil {
			continue
		}
		resp, err := probeClient.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			c.gatewayIndex.Store(int32(i))
			c.resolvedURL.Set(cid, fullURL, gocache.DefaultExpiration)
			return fullURL
		}
	}

	log.Printf("[WARN] All IPFS gateways failed probe for CID %s", cid)
	return fmt.Sprintf("%s/ipfs/%s", c.gatewayURLs[0], cid)
}

// PreferredGatewayURL builds a URL from the current sticky gateway without probing.
func (c *Client) PreferredGatewayURL(cid string) string {
	return fmt.Sprintf("%s/ipfs/%s", c.gatewayURLs[c.gatewayIndex.Load()], cid)
}

// HealthCheck stores a small canary payload to verify write availability.
func (c *Client) HealthCheck(ctx context.Context) bool {
	cid, err := c.Store(ctx, []byte("health check"))
	if err != nil {
		log.Printf("[WARN] IPFS health check failed: %v", err)
		return false
	}
	return cid != ""
}

// GatewayStatus reports the current endpoint selection for operational tooling.
func (c *Client) GatewayStatus() map[string]interface{} {
	return map[string]interface{}{
		"current_api":        c.apiURLs[c.apiIndex.Load()],
		"current_gateway":    c.gatewayURLs[c.gatewayIndex.Load()],
		"available_apis":     c.apiURLs,
		"available_gateways": c.gatewayURLs,
	}
}
