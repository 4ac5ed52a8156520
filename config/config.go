package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ipfs-force-community/metrics"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml"
)

const (
	// Configuration file name
	ConfigFile = "config.toml"

	defaultRepoDir = "~/.walletbridge"
)

type Config struct {
	API      *APIConfig
	Provider *ProviderConfig
	Networks *NetworksConfig
	Store    *StoreConfig
	UI       *UIConfig
	Metrics  *metrics.MetricsConfig
	Trace    *metrics.TraceConfig
}

type APIConfig struct {
	ListenAddress string
}

// ProviderConfig points at the injected wallet endpoint. An empty Endpoint
// selects the null provider.
type ProviderConfig struct {
	Endpoint     string
	Vendor       string
	PollInterval time.Duration
}

type NetworksConfig struct {
	Supported []uint64
}

type StoreConfig struct {
	// InMemory disables on-disk persistence, every run starts disconnected.
	InMemory bool
	DataDir  string
}

// UIConfig carries the selector hints and install targets handed through to
// page-side listeners. The daemon treats them as opaque strings.
type UIConfig struct {
	ConnectButtonSelector string
	ButtonWrapperSelector string
	ButtonTextSelector    string
	ConnectLabel          string
	InstallURL            string
	DeepLinkURL           string
}

func DefaultConfig() *Config {
	cfg := &Config{
		API: &APIConfig{ListenAddress: "/ip4/127.0.0.1/tcp/45232"},
		Provider: &ProviderConfig{
			Endpoint:     "",
			Vendor:       "MetaMask",
			PollInterval: 2 * time.Second,
		},
		Networks: &NetworksConfig{Supported: []uint64{1, 11155111, 17000}},
		Store:    &StoreConfig{InMemory: false, DataDir: "wallet-store"},
		UI: &UIConfig{
			ConnectButtonSelector: "#connect-wallet",
			ButtonWrapperSelector: ".wallet-button-wrapper",
			ButtonTextSelector:    ".wallet-button-text",
			ConnectLabel:          "Connect Wallet",
			InstallURL:            "https://metamask.io/download/",
			DeepLinkURL:           "https://metamask.app.link/dapp/",
		},
		Metrics: metrics.DefaultMetricsConfig(),
		Trace:   metrics.DefaultTraceConfig(),
	}
	namespace := "walletbridge"
	cfg.Metrics.Exporter.Prometheus.Namespace = namespace
	cfg.Metrics.Exporter.Graphite.Namespace = namespace
	cfg.Trace.ServerName = namespace
	cfg.Trace.JaegerEndpoint = ""

	return cfg
}

func ReadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = toml.Unmarshal(data, cfg)

	return cfg, err
}

func WriteConfig(filePath string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

// HomeDir expands and creates the repo directory.
func HomeDir(path string) (string, error) {
	if path == "" {
		path = defaultRepoDir
	}
	dir, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureConfig loads the config from the repo dir, writing the defaults on
// first run.
func EnsureConfig(repoDir string) (*Config, error) {
	cfgPath := filepath.Join(repoDir, ConfigFile)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := WriteConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return ReadConfig(cfgPath)
}
