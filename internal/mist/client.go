package mist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"apsiteimport/internal/domain"
)

// Config holds the connection settings for the remote inventory service.
type Config struct {
	BaseURL  string
	OrgID    string
	APIToken string
	Timeout  time.Duration
}

// APIError carries the HTTP status and body of a failed remote call.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote call failed (HTTP %d): %s", e.StatusCode, e.Body)
}

// Client talks to the Mist-style org API: site catalog, device inventory,
// and the inventory assign operation.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a client. The logger may be nil.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// ListSites returns the org's sites sorted case-insensitively by name.
func (c *Client) ListSites(ctx context.Context) ([]domain.Site, error) {
	var sites []domain.Site
	if err := c.get(ctx, c.orgURL("sites"), &sites); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	sort.SliceStable(sites, func(i, j int) bool {
		return strings.ToLower(sites[i].Name) < strings.ToLower(sites[j].Name)
	})
	return sites, nil
}

// ListInventory returns the org's full device inventory.
func (c *Client) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	if err := c.get(ctx, c.orgURL("inventory"), &records); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	c.logger.Debug("fetched inventory", zap.Int("devices", len(records)))
	return records, nil
}

type assignPayload struct {
	Op     string   `json:"op"`
	SiteID string   `json:"site_id"`
	MACs   []string `json:"macs"`
}

// Assign moves one device, identified by MAC address, to the given site.
func (c *Client) Assign(ctx context.Context, siteID, mac string) error {
	payload := assignPayload{Op: "assign", SiteID: siteID, MACs: []string{mac}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode assign payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.orgURL("inventory"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build assign request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("assign device: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) orgURL(resource string) string {
	return fmt.Sprintf("%s/api/v1/orgs/%s/%s", c.cfg.BaseURL, c.cfg.OrgID, resource)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")
}

func readBody(r io.Reader) string {
	const maxLen = 512
	body, err := io.ReadAll(io.LimitReader(r, maxLen))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}
