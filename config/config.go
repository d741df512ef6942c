package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds everything the gateway needs to run. The SePay API key
// is resolved at load time and handed to the client at construction;
// there is no process-wide mutable configuration.
type Config struct {
	ListenAddr string
	// MCPListenAddr is the bind address of the MCP tool gateway
	// started by the `mcp` subcommand.
	MCPListenAddr string
	SePayBaseURL  string
	SePayAPIKey   string
	HTTPTimeout   time.Duration
	Currency      string
	// ReconcileTolerance is the largest absolute difference between a
	// locally computed running balance and the provider-reported one
	// that is still treated as agreement. Defaults to one whole unit,
	// which fits subunit-less currencies; set e.g. "0.01" for
	// currencies with cents.
	ReconcileTolerance decimal.Decimal
	TLSDomains         []string
	TLSCacheDir        string
}

type configTmp struct {
	ListenAddr         string   `yaml:"listen_addr"`
	MCPListenAddr      string   `yaml:"mcp_listen,omitempty"`
	SePayBaseURL       string   `yaml:"sepay_base_url,omitempty"`
	SePayAPIKey        string   `yaml:"sepay_api_key,omitempty"`
	HTTPTimeout        string   `yaml:"http_timeout,omitempty"`
	Currency           string   `yaml:"currency,omitempty"`
	ReconcileTolerance string   `yaml:"reconcile_tolerance,omitempty"`
	TLSDomains         []string `yaml:"tls_domains,omitempty"`
	TLSCacheDir        string   `yaml:"tls_cache_dir,omitempty"`
}

// Get loads configuration from a yaml file when --config is provided,
// otherwise from CLI flags. SEPAY_API_KEY in the environment always
// overrides the file value so the key can stay out of config files.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", ":8000", "listen address for the banking api")
	mcpListen := flag.String("mcp-listen", ":8001", "listen address for the mcp tool gateway")
	baseURL := flag.String("sepay-url", "", "sepay api base url (default production)")
	timeout := flag.Duration("http-timeout", 30*time.Second, "timeout for outbound sepay requests")
	currency := flag.String("currency", "VND", "currency code reported in balance snapshots")
	tolerance := flag.String("reconcile-tolerance", "1", "tolerance for balance reconciliation, in currency units")
	flag.Parse()

	var cfg Config
	if *configPath != "" {
		var err error
		cfg, err = getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		tol, err := decimal.NewFromString(*tolerance)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect -reconcile-tolerance value %q: %w", *tolerance, err)
		}
		cfg = Config{
			ListenAddr:         *listen,
			MCPListenAddr:      *mcpListen,
			SePayBaseURL:       *baseURL,
			HTTPTimeout:        *timeout,
			Currency:           *currency,
			ReconcileTolerance: tol,
		}
	}

	if key := os.Getenv("SEPAY_API_KEY"); key != "" {
		cfg.SePayAPIKey = key
	}
	if cfg.SePayAPIKey == "" {
		return Config{}, fmt.Errorf("sepay api key is required: set SEPAY_API_KEY or 'sepay_api_key' in the config file")
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// Load reads a yaml config file without touching flags. Used by tests
// and by the setup wizard when verifying what it wrote.
func Load(path string) (Config, error) {
	cfg, err := getYaml(path)
	if err != nil {
		return Config{}, err
	}
	if key := os.Getenv("SEPAY_API_KEY"); key != "" {
		cfg.SePayAPIKey = key
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	cfg := Config{
		ListenAddr:    tmp.ListenAddr,
		MCPListenAddr: tmp.MCPListenAddr,
		SePayBaseURL:  tmp.SePayBaseURL,
		SePayAPIKey:   tmp.SePayAPIKey,
		Currency:      tmp.Currency,
		TLSDomains:    tmp.TLSDomains,
		TLSCacheDir:   tmp.TLSCacheDir,
	}
	if tmp.HTTPTimeout != "" {
		d, err := time.ParseDuration(tmp.HTTPTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'http_timeout' param in yaml config (correct format is 30s): %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if tmp.ReconcileTolerance != "" {
		tol, err := decimal.NewFromString(tmp.ReconcileTolerance)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'reconcile_tolerance' param in yaml config (correct format is 0.01): %w", err)
		}
		cfg.ReconcileTolerance = tol
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "VND"
	}
	if cfg.MCPListenAddr == "" {
		cfg.MCPListenAddr = ":8001"
	}
	if cfg.ReconcileTolerance.IsZero() {
		cfg.ReconcileTolerance = decimal.NewFromInt(1)
	}
}
