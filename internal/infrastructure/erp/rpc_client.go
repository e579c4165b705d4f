// Package erp implements the JSON-RPC client the background company
// provisioner uses to create company records and install modules on a
// designated Odoo database.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/service"
	"github.com/turtacn/onboard/pkg/logger"
)

// RPCClient provisions companies over Odoo's /jsonrpc endpoint. It implements
// service.CompanyProvisioner.
type RPCClient struct {
	baseURL    string
	database   string
	user       string
	password   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewRPCClient creates an ERP client from the provisioner configuration.
func NewRPCClient(cfg *config.ProvisionerConfig, log logger.Logger) *RPCClient {
	return &RPCClient{
		baseURL:    strings.TrimRight(cfg.ERPBaseURL, "/"),
		database:   cfg.ERPDatabase,
		user:       cfg.ERPUser,
		password:   cfg.ERPPassword,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     log.WithComponent("ERPClient"),
	}
}

var _ service.CompanyProvisioner = (*RPCClient)(nil)

// Provision logs in with the fixed operator credentials, creates the company
// record and installs each requested module. A login failure fails the whole
// task; module failures are logged per module and do not halt the rest.
func (c *RPCClient) Provision(ctx context.Context, task models.ProvisionTask) error {
	uid, err := c.login(ctx)
	if err != nil {
		return fmt.Errorf("erp login failed: %w", err)
	}

	companyID, err := c.createCompany(ctx, uid, task.CompanyName)
	if err != nil {
		return fmt.Errorf("failed to create company %q: %w", task.CompanyName, err)
	}
	c.logger.Info(ctx, "Company created", logger.Fields{
		"company_name": task.CompanyName,
		"company_id":   companyID,
	})

	for _, module := range task.Modules {
		if err := c.installModule(ctx, uid, module); err != nil {
			c.logger.Error(ctx, "Module install failed, continuing", err, logger.Fields{
				"module": module,
			})
		}
	}
	return nil
}

// login authenticates against the common service and returns the user id.
// Odoo answers false instead of a uid when the credentials are rejected.
func (c *RPCClient) login(ctx context.Context) (int, error) {
	var raw json.RawMessage
	err := c.call(ctx, "common", "login", []interface{}{c.database, c.user, c.password}, &raw)
	if err != nil {
		return 0, err
	}
	var uid int
	if err := json.Unmarshal(raw, &uid); err != nil || uid == 0 {
		return 0, fmt.Errorf("invalid credentials for database %q", c.database)
	}
	return uid, nil
}

func (c *RPCClient) createCompany(ctx context.Context, uid int, name string) (int, error) {
	var companyID int
	err := c.executeKw(ctx, uid, "res.company", "create",
		[]interface{}{map[string]interface{}{"name": name}}, &companyID)
	return companyID, err
}

// installModule installs the named module when it exists and is currently
// uninstalled; otherwise it is a logged no-op.
func (c *RPCClient) installModule(ctx context.Context, uid int, module string) error {
	var ids []int
	err := c.executeKw(ctx, uid, "ir.module.module", "search",
		[]interface{}{[]interface{}{
			[]interface{}{"name", "=", module},
			[]interface{}{"state", "=", "uninstalled"},
		}}, &ids)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.logger.Info(ctx, "Module not found or already installed, skipping", logger.Fields{
			"module": module,
		})
		return nil
	}

	if err := c.executeKw(ctx, uid, "ir.module.module", "button_install",
		[]interface{}{ids}, nil); err != nil {
		return err
	}
	c.logger.Info(ctx, "Module installed", logger.Fields{"module": module})
	return nil
}

// executeKw invokes a model method through the object service.
func (c *RPCClient) executeKw(ctx context.Context, uid int, model, method string, args []interface{}, result interface{}) error {
	callArgs := []interface{}{c.database, uid, c.password, model, method}
	callArgs = append(callArgs, args...)
	return c.call(ctx, "object", "execute_kw", callArgs, result)
}

// rpcError is the error object of a JSON-RPC failure envelope.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC round trip against /jsonrpc.
func (c *RPCClient) call(ctx context.Context, svc, method string, args []interface{}, result interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "call",
		"params": map[string]interface{}{
			"service": svc,
			"method":  method,
			"args":    args,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("jsonrpc http status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode jsonrpc response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if result != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode jsonrpc result: %w", err)
		}
	}
	return nil
}
