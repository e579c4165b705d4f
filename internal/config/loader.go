package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the ONBOARD_ prefix with underscores, e.g.
// ONBOARD_ODOO_MASTER_PASSWORD.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/onboard/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ONBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	// Must exceed the creation call budget: the creation endpoint holds the
	// connection open while Odoo builds the database.
	v.SetDefault("server.write_timeout", 4*time.Minute)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.template_glob", "templates/*.html")
	v.SetDefault("server.static_dir", "static")

	v.SetDefault("database.host", "pg_clients")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "clientadmin")
	v.SetDefault("database.password", "clientpass")
	v.SetDefault("database.database", "clients")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.provision_topic", "onboard.provision")
	v.SetDefault("kafka.group_id", "onboard-provisioners")
	v.SetDefault("kafka.write_timeout", 10*time.Second)
	v.SetDefault("kafka.read_timeout", 10*time.Second)
	v.SetDefault("kafka.batch_timeout", time.Second)

	v.SetDefault("odoo.community_internal", "http://odoo_community:8069")
	v.SetDefault("odoo.community_external", "http://localhost:8069")
	v.SetDefault("odoo.enterprise_internal", "http://odoo_enterprise:8069")
	v.SetDefault("odoo.enterprise_external", "http://localhost:8070")
	v.SetDefault("odoo.master_password", "admin")
	v.SetDefault("odoo.list_timeout", 30*time.Second)
	v.SetDefault("odoo.create_timeout", 180*time.Second)

	v.SetDefault("flow.token_ttl", 15*time.Minute)
	v.SetDefault("flow.nonce_ttl", 5*time.Minute)
	v.SetDefault("flow.sweep_every", time.Minute)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_path", "onboard/odoo")

	v.SetDefault("provisioner.request_timeout", 60*time.Second)
	v.SetDefault("provisioner.default_modules", []string{"crm", "sale_management"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "onboard-gateway")

	v.SetDefault("monitoring.pprof_enabled", false)
}
