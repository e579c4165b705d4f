package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Odoo        OdooConfig        `mapstructure:"odoo"`
	Flow        FlowConfig        `mapstructure:"flow"`
	Vault       VaultConfig       `mapstructure:"vault"`
	Provisioner ProvisionerConfig `mapstructure:"provisioner"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TemplateGlob string        `mapstructure:"template_glob"`
	StaticDir    string        `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int    `mapstructure:"max_conns"`
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	// Enabled selects the Redis-backed nonce ledger. When false the gateway
	// falls back to the in-process ledger, which is only safe single-instance.
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Brokers        []string      `mapstructure:"brokers"`
	ProvisionTopic string        `mapstructure:"provision_topic"`
	GroupID        string        `mapstructure:"group_id"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
}

// OdooConfig describes the edition targets and the creation credential.
// Internal URLs are reached from the gateway network; external URLs are what
// the browser is redirected to.
type OdooConfig struct {
	CommunityInternal  string `mapstructure:"community_internal"`
	CommunityExternal  string `mapstructure:"community_external"`
	EnterpriseInternal string `mapstructure:"enterprise_internal"`
	EnterpriseExternal string `mapstructure:"enterprise_external"`

	// MasterPassword authorizes /web/database/create. Overridden from Vault
	// when vault.enabled is set.
	MasterPassword string `mapstructure:"master_password"`

	ListTimeout   time.Duration `mapstructure:"list_timeout"`
	CreateTimeout time.Duration `mapstructure:"create_timeout"`
}

type FlowConfig struct {
	// TokenSecret signs the short-lived flow token that carries the intake
	// selection between pages.
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	NonceTTL    time.Duration `mapstructure:"nonce_ttl"`
	SweepEvery  time.Duration `mapstructure:"sweep_every"`
}

type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
}

// ProvisionerConfig configures the background company provisioner worker.
type ProvisionerConfig struct {
	ERPBaseURL     string        `mapstructure:"erp_base_url"`
	ERPDatabase    string        `mapstructure:"erp_database"`
	ERPUser        string        `mapstructure:"erp_user"`
	ERPPassword    string        `mapstructure:"erp_password"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// DefaultModules is installed for every provisioned company.
	DefaultModules []string `mapstructure:"default_modules"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

type MonitoringConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Odoo.CommunityInternal == "" || c.Odoo.EnterpriseInternal == "" {
		return fmt.Errorf("odoo internal base URLs must be configured")
	}
	if c.Odoo.CommunityExternal == "" || c.Odoo.EnterpriseExternal == "" {
		return fmt.Errorf("odoo external base URLs must be configured")
	}
	if c.Flow.TokenSecret == "" {
		return fmt.Errorf("flow.token_secret must be configured")
	}
	return nil
}
