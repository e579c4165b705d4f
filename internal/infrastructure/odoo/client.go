// Package odoo implements the HTTP client for the Odoo database manager:
// directory listing and database creation.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/pkg/logger"
)

const userAgent = "onboard/1.0"

// Client talks to an Odoo server's /web/database endpoints. It implements
// both service.DirectoryClient and service.DatabaseCreator.
type Client struct {
	listClient   *http.Client
	createClient *http.Client
	masterPwd    string
	logger       logger.Logger
}

// NewClient creates an Odoo client with the configured timeouts. The creation
// timeout is generous because remote database creation is heavyweight.
func NewClient(cfg *config.OdooConfig, log logger.Logger) *Client {
	return &Client{
		listClient:   &http.Client{Timeout: cfg.ListTimeout},
		createClient: &http.Client{Timeout: cfg.CreateTimeout},
		masterPwd:    cfg.MasterPassword,
		logger:       log.WithComponent("OdooClient"),
	}
}

// rpcEnvelope is the JSON-RPC success envelope of /web/database/list.
type rpcEnvelope struct {
	Result []string `json:"result"`
}

// ListDatabases queries the server for its tenant databases. It tries the
// JSON-RPC envelope first and falls back to the legacy empty-form POST that
// older server versions expect. Any failure yields an empty degraded
// snapshot; the creation call and the post-check still guard correctness.
func (c *Client) ListDatabases(ctx context.Context, baseURL string) models.DirectorySnapshot {
	listURL := strings.TrimRight(baseURL, "/") + "/web/database/list"

	if dbs, ok := c.listJSONRPC(ctx, listURL); ok {
		return models.DirectorySnapshot{Databases: dbs}
	}
	if dbs, ok := c.listLegacyForm(ctx, listURL); ok {
		return models.DirectorySnapshot{Databases: dbs}
	}

	c.logger.Warn(ctx, "Directory listing degraded, treating as empty", logger.Fields{
		"url": listURL,
	})
	return models.DirectorySnapshot{Degraded: true}
}

func (c *Client) listJSONRPC(ctx context.Context, listURL string) ([]string, bool) {
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "call",
		"params":  map[string]interface{}{},
	})
	if err != nil {
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, listURL, bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	return c.decodeListResponse(req)
}

func (c *Client) listLegacyForm(ctx context.Context, listURL string) ([]string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, listURL, strings.NewReader(""))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	return c.decodeListResponse(req)
}

// decodeListResponse accepts only a 200 with a JSON object whose result is a
// list of strings; anything else is a miss.
func (c *Client) decodeListResponse(req *http.Request) ([]string, bool) {
	resp, err := c.listClient.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, false
	}

	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, false
	}
	if envelope.Result == nil {
		return nil, false
	}
	return envelope.Result, true
}

// CreateDatabase issues the form-encoded creation call. The returned status
// is Odoo's HTTP status; the caller never judges success from it, only from
// re-listing the directory afterwards. A non-nil error means the request did
// not complete at the transport level.
func (c *Client) CreateDatabase(ctx context.Context, baseURL string, creation models.CreationRequest) (int, error) {
	demo := "false"
	if creation.Demo {
		demo = "true"
	}

	form := url.Values{
		"master_pwd":   {c.masterPwd},
		"name":         {creation.TenantName.String()},
		"login":        {creation.AdminLogin},
		"password":     {creation.AdminPassword},
		"lang":         {creation.Language},
		"country_code": {creation.CountryCode},
		"phone":        {creation.Phone},
		"demo":         {demo},
	}

	createURL := strings.TrimRight(baseURL, "/") + "/web/database/create"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, createURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.createClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.logger.Info(ctx, "Database creation call completed", logger.Fields{
		"db_name":    creation.TenantName.String(),
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	})
	return resp.StatusCode, nil
}
