// Package config loads client configuration from the environment and the
// local MCP server-catalog file.
package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultCustomerID is the demo customer simulated when CUSTOMER_ID is unset.
	DefaultCustomerID = "97074301-cb76-407c-b97c-fa1f7c43b286"

	// DefaultAPIBaseURL points at a locally running bankd instance.
	DefaultAPIBaseURL = "http://localhost:8080"

	// DefaultMCPConfigFile is the default path of the MCP server catalog.
	DefaultMCPConfigFile = "mcp-config.json"

	// DefaultMCPEndpoint is used when the catalog is missing or unparseable.
	DefaultMCPEndpoint = "http://localhost:7860/api/v1/mcp/project/67240574-f02c-4eec-baee-e5ae822533d3/sse"
)

// Config holds the client configuration loaded from environment variables.
type Config struct {
	// BankingAPIURL is the base URL of the upstream banking API.
	// Environment variable: BANKING_API_URL
	BankingAPIURL string `koanf:"BANKING_API_URL"`

	// CustomerID is the opaque identifier of the simulated customer.
	// Environment variable: CUSTOMER_ID
	CustomerID string `koanf:"CUSTOMER_ID"`

	// MCPConfigFile is the path to the MCP server catalog JSON file.
	// Environment variable: MCP_CONFIG
	MCPConfigFile string `koanf:"MCP_CONFIG"`
}

// Load reads configuration from environment variables, filling in the
// hardcoded defaults for anything unset.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.BankingAPIURL == "" {
		cfg.BankingAPIURL = DefaultAPIBaseURL
	}
	if cfg.CustomerID == "" {
		cfg.CustomerID = DefaultCustomerID
	}
	if cfg.MCPConfigFile == "" {
		cfg.MCPConfigFile = DefaultMCPConfigFile
	}

	return cfg, nil
}

// mcpCatalog mirrors the mcp-config.json layout: a map of named server
// entries, each invoking a gateway command whose arguments include the
// SSE endpoint URL.
type mcpCatalog struct {
	Servers map[string]mcpServer `koanf:"mcpServers"`
}

type mcpServer struct {
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
}

// MCPEndpoint resolves the remote tool endpoint URL from the catalog file.
// It returns the first argument resembling an HTTP URL within any server
// entry. A missing or malformed catalog is not fatal: the hardcoded
// default endpoint is returned instead and a warning is logged.
func (c Config) MCPEndpoint(logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint, err := parseMCPCatalog(c.MCPConfigFile)
	if err != nil {
		logger.Warn("falling back to default MCP endpoint",
			"path", c.MCPConfigFile,
			"error", err,
		)
		return DefaultMCPEndpoint
	}

	return endpoint
}

func parseMCPCatalog(path string) (string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return "", fmt.Errorf("loading MCP catalog: %w", err)
	}

	var catalog mcpCatalog
	if err := k.Unmarshal("", &catalog); err != nil {
		return "", fmt.Errorf("unmarshaling MCP catalog: %w", err)
	}

	// Deterministic scan order across server entries.
	names := make([]string, 0, len(catalog.Servers))
	for name := range catalog.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, arg := range catalog.Servers[name].Args {
			if strings.HasPrefix(arg, "http") {
				return arg, nil
			}
		}
	}

	return "", fmt.Errorf("no URL found in MCP server arguments")
}
