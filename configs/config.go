package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// Client is an API consumer allowed to call the merchant endpoints.
type Client struct {
	ID      string   `koanf:"id"`
	Secret  string   `koanf:"secret"`
	Perms   []string `koanf:"perms"` // e.g. {"orders.read","orders.write"}
	Enabled bool     `koanf:"enabled"`
}

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Dedupe struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"dedupe"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Rabbit struct {
		URL         string `koanf:"url"`
		EventsQueue string `koanf:"events_queue"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
		GroupID string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
		Clients   []Client      `koanf:"clients"`
	} `koanf:"security"`

	Gateway struct {
		ID             string `koanf:"id"`
		Enabled        bool   `koanf:"enabled"`
		APIBase        string `koanf:"api_base"`
		MerchantWallet string `koanf:"merchant_wallet"`
		StoreName      string `koanf:"store_name"`
		WebhookSecret  string `koanf:"webhook_secret"`
		WebhookURL     string `koanf:"webhook_url"`
		ReturnURL      string `koanf:"return_url"`
		CancelURL      string `koanf:"cancel_url"`
	} `koanf:"gateway"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env overlay (dev/staging/prod). Optional for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix EASEPAY_, nested with __)
	// e.g. EASEPAY_MYSQL__DSN, EASEPAY_GATEWAY__WEBHOOK_SECRET
	if err := k.Load(env.Provider("EASEPAY_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "EASEPAY_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Gateway.ID == "" {
		return fmt.Errorf("gateway.id required")
	}
	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("gateway.webhook_secret required")
	}
	if c.Gateway.Enabled && !usecase.ValidWallet(c.Gateway.MerchantWallet) {
		return fmt.Errorf("gateway.merchant_wallet must be 0x followed by 40 hex chars")
	}
	return nil
}

// GatewayConfig maps the gateway section onto the checkout use case input.
func (c Config) GatewayConfig() usecase.GatewayConfig {
	return usecase.GatewayConfig{
		ID:             c.Gateway.ID,
		Enabled:        c.Gateway.Enabled,
		APIBase:        strings.TrimRight(c.Gateway.APIBase, "/"),
		MerchantWallet: c.Gateway.MerchantWallet,
		StoreName:      c.Gateway.StoreName,
		WebhookURL:     c.Gateway.WebhookURL,
		ReturnURL:      c.Gateway.ReturnURL,
		CancelURL:      c.Gateway.CancelURL,
	}
}
