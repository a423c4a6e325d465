// Package toolchannel maintains the persistent tool-protocol connection to
// a financial-data MCP server: OAuth2 bootstrap, streaming-HTTP transport,
// tool-category header injection, and reconnect-on-drop behavior.
package toolchannel

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClientContext describes the calling client to the tool server; its
// "type" field controls whether the "openbb" tool category is requested
// in addition to the default "financial" one.
type ClientContext struct {
	Type string `yaml:"type" json:"type,omitempty"`
}

// Config holds everything needed to bootstrap an OAuth2 session and open
// the streaming-HTTP tool channel.
type Config struct {
	ServerHost       string        `yaml:"server_host" json:"server_host"`
	ServerPort       int           `yaml:"server_port" json:"server_port"`
	SoftwareStatement string       `yaml:"software_statement" json:"software_statement"`
	ClientContext    ClientContext `yaml:"client_context" json:"client_context"`
}

// FromMap builds a Config from a loosely-typed map, mirroring the original
// SDK's defensive key lookups: a missing required key is a configuration
// error rather than a zero value silently propagating.
func FromMap(raw map[string]any) (*Config, error) {
	cfg := &Config{}

	host, ok := raw["server_host"].(string)
	if !ok || host == "" {
		return nil, fmt.Errorf("toolchannel: config missing required key %q", "server_host")
	}
	cfg.ServerHost = normalizeServer(host)

	switch port := raw["server_port"].(type) {
	case int:
		cfg.ServerPort = port
	case float64:
		cfg.ServerPort = int(port)
	default:
		return nil, fmt.Errorf("toolchannel: config missing required key %q", "server_port")
	}

	stmt, ok := raw["software_statement"].(string)
	if !ok || stmt == "" {
		return nil, fmt.Errorf("toolchannel: config missing required key %q", "software_statement")
	}
	cfg.SoftwareStatement = stmt

	if cc, ok := raw["client_context"].(map[string]any); ok {
		if t, ok := cc["type"].(string); ok {
			cfg.ClientContext.Type = t
		}
	}
	return cfg, nil
}

// FromYAML parses a tool-channel configuration document, applying the same
// required-key validation as FromMap by round-tripping through it.
func FromYAML(doc []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("toolchannel: parse yaml config: %w", err)
	}
	return FromMap(raw)
}

// normalizeServer prepends "https://" when host carries no scheme, so
// callers may configure either a bare hostname or a full URL.
func normalizeServer(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// BaseURL returns the "<scheme>://host:port" prefix the MCP and SSE
// endpoints are built from.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// ToolCategoriesHeader builds the X-Tool-Categories header value: always
// "financial", plus "openbb" when client_context.type == "openbb".
func (c *Config) ToolCategoriesHeader() string {
	categories := []string{"financial"}
	if c.ClientContext.Type == "openbb" {
		categories = append(categories, "openbb")
	}
	return strings.Join(categories, ",")
}
