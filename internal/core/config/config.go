// Package config loads the proxy configuration from defaults, an optional TOML file,
// a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
)

// DefaultBaseURL points at the upstream mock started by the compose file.
const DefaultBaseURL = "http://localhost:7004/open-banking/products-services/v2"

// Config is built once at startup by Load and never mutated afterwards.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		// PublicURL, when set, replaces scheme and host of envelope links.
		PublicURL string `mapstructure:"public_url"`
		// TrustedProxies is a comma separated list of IPs / CIDRs whose forwarding headers are honoured.
		TrustedProxies string `mapstructure:"trusted_proxies"`
	} `mapstructure:"server"`
	Upstream struct {
		BaseURL string `mapstructure:"base_url"`
		// Timeout bounds a single upstream call.
		Timeout time.Duration `mapstructure:"-"`
	} `mapstructure:"upstream"`
	Pagination struct {
		DefaultPageSize int  `mapstructure:"default_page_size"`
		MaxPageSize     int  `mapstructure:"max_page_size"`
		Strict          bool `mapstructure:"strict"`
	} `mapstructure:"pagination"`
	Log struct {
		Level  string            `mapstructure:"level"`
		Levels map[string]string `mapstructure:"-"`
	} `mapstructure:"log"`
	App struct {
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`
	CORS struct {
		Origins string `mapstructure:"origins"`
	} `mapstructure:"cors"`
	RateLimit struct {
		RPS   float64 `mapstructure:"rps"`
		Burst int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
}

// envBindings maps config keys to the environment variables operators already use.
// Earlier names win when several are set.
var envBindings = map[string][]string{
	"server.host":                  {"HOST"},
	"server.port":                  {"PORT"},
	"server.public_url":            {"PUBLIC_BASE_URL"},
	"server.trusted_proxies":       {"TRUSTED_PROXIES"},
	"upstream.base_url":            {"OPENBANKING_BASE_URL"},
	"upstream.timeout":             {"REQUEST_TIMEOUT"},
	"pagination.default_page_size": {"DEFAULT_PAGE_SIZE"},
	"pagination.max_page_size":     {"MAX_PAGE_SIZE"},
	"pagination.strict":            {"PAGINATION_STRICT"},
	"log.level":                    {"LOG_LEVEL"},
	"app.environment":              {"APP_ENV", "FLASK_ENV"},
	"cors.origins":                 {"CORS_ORIGINS"},
	"rate_limit.rps":               {"RATE_LIMIT_RPS"},
	"rate_limit.burst":             {"RATE_LIMIT_BURST"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("upstream.base_url", DefaultBaseURL)
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("pagination.default_page_size", 25)
	v.SetDefault("pagination.max_page_size", 100)
	v.SetDefault("pagination.strict", false)
	v.SetDefault("app.environment", "development")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 20)
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left alone; a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds a Config. cfgFile may be empty, in which case ./config.toml is used when present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	setDefaults(v)
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	timeout, err := parseTimeout(v.GetString("upstream.timeout"))
	if err != nil {
		return nil, err
	}
	cfg.Upstream.Timeout = timeout
	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")
	cfg.Server.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.Server.PublicURL), "/")
	cfg.App.Environment = strings.ToLower(strings.TrimSpace(cfg.App.Environment))
	cfg.Log.Levels = flattenLevels("", v.Get("log.levels"))

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel(cfg.App.Environment)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseTimeout accepts a Go duration ("15s", "1m") or a bare number of seconds ("30").
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: upstream timeout %q", errs.ErrInvalidInput, raw)
	}
	return d, nil
}

func defaultLogLevel(environment string) string {
	switch environment {
	case "production":
		return "warn"
	case "development", "testing":
		return "debug"
	default:
		return "info"
	}
}

// flattenLevels turns the nested maps viper produces for dotted TOML keys
// back into "a.b.c" -> level entries.
func flattenLevels(prefix string, raw interface{}) map[string]string {
	out := make(map[string]string)
	m, ok := raw.(map[string]interface{})
	if !ok {
		return out
	}
	for k, val := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch tv := val.(type) {
		case string:
			out[name] = tv
		case map[string]interface{}:
			for nk, nv := range flattenLevels(name, tv) {
				out[nk] = nv
			}
		}
	}
	return out
}

// Validate checks the values that would otherwise fail at request time.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: upstream base url %q must be an absolute http(s) url", errs.ErrInvalidInput, c.Upstream.BaseURL)
	}
	if c.Server.PublicURL != "" {
		pu, err := url.Parse(c.Server.PublicURL)
		if err != nil || (pu.Scheme != "http" && pu.Scheme != "https") || pu.Host == "" {
			return fmt.Errorf("%w: public url %q must be an absolute http(s) url", errs.ErrInvalidInput, c.Server.PublicURL)
		}
	}
	for _, proxy := range c.TrustedProxyList() {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("%w: trusted proxy %q is neither an IP nor a CIDR", errs.ErrInvalidInput, proxy)
		}
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q: %v", errs.ErrInvalidInput, c.Log.Level, err)
	}
	for name, raw := range c.Log.Levels {
		if _, err := logger.ParseLevel(raw); err != nil {
			return fmt.Errorf("%w: log level %q for %s: %v", errs.ErrInvalidInput, raw, name, err)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("%w: upstream timeout must be positive", errs.ErrInvalidInput)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", errs.ErrInvalidInput, c.Server.Port)
	}
	if c.Pagination.MaxPageSize < 1 {
		return fmt.Errorf("%w: max page size must be at least 1", errs.ErrInvalidInput)
	}
	if c.Pagination.DefaultPageSize < 1 || c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("%w: default page size %d must be within [1, %d]",
			errs.ErrInvalidInput, c.Pagination.DefaultPageSize, c.Pagination.MaxPageSize)
	}
	switch c.App.Environment {
	case "development", "production", "testing":
	default:
		return fmt.Errorf("%w: unknown environment %q", errs.ErrInvalidInput, c.App.Environment)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("%w: rate limit rps must not be negative", errs.ErrInvalidInput)
	}
	for _, origin := range c.AllowedOrigins() {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("%w: cors origin %q must be * or an http(s) origin", errs.ErrInvalidInput, origin)
		}
	}
	return nil
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	origins := splitList(c.CORS.Origins)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// TrustedProxyList splits the comma separated trusted proxy list; empty means trust none.
func (c *Config) TrustedProxyList() []string {
	return splitList(c.Server.TrustedProxies)
}

// TrustedProxyPrefixes parses TrustedProxyList; single addresses become host prefixes.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	var prefixes []netip.Prefix
	for _, proxy := range c.TrustedProxyList() {
		if p, err := netip.ParsePrefix(proxy); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(proxy); err == nil {
			a = a.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return prefixes
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsDevelopment reports whether verbose, developer oriented behaviour should be enabled.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
