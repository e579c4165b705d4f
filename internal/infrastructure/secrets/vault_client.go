// Package secrets reads deployment secrets from HashiCorp Vault.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/pkg/logger"
)

// VaultClient fetches secrets from a KV v2 mount.
type VaultClient struct {
	client    *vault.Client
	mountPath string
	logger    logger.Logger
}

// NewVaultClient creates and configures a Vault client with token auth.
func NewVaultClient(cfg *config.VaultConfig, log logger.Logger) (*VaultClient, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &VaultClient{
		client:    client,
		mountPath: cfg.MountPath,
		logger:    log.WithComponent("VaultClient"),
	}, nil
}

// GetString reads one string field from the secret at the given path.
func (v *VaultClient) GetString(ctx context.Context, secretPath, field string) (string, error) {
	secret, err := v.client.KVv2(v.mountPath).Get(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read vault secret %q: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault secret %q is empty", secretPath)
	}

	value, ok := secret.Data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault secret %q is missing field %q", secretPath, field)
	}
	return value, nil
}

// LoadMasterPassword overrides the configured Odoo master password from Vault
// when Vault is enabled.
func LoadMasterPassword(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(&cfg.Vault, log)
	if err != nil {
		return err
	}
	password, err := client.GetString(ctx, cfg.Vault.SecretPath, "master_password")
	if err != nil {
		return err
	}

	cfg.Odoo.MasterPassword = password
	log.Info(ctx, "Odoo master password loaded from Vault")
	return nil
}
