package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// HasAPIKey reports whether a non-blank credential is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.AnthropicAPIKey) != ""
}

// GetEndpoint returns the generation endpoint with default fallback.
func (c *Config) GetEndpoint() string {
	if c.Generator.Endpoint == "" {
		return DefaultGeneratorEndpoint
	}
	return c.Generator.Endpoint
}

// GetModel returns the model identifier with default fallback.
func (c *Config) GetModel() string {
	if c.Generator.Model == "" {
		return DefaultGeneratorModel
	}
	return c.Generator.Model
}

// GetMaxTokens returns the token budget with default fallback.
func (c *Config) GetMaxTokens() int {
	if c.Generator.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.Generator.MaxTokens
}

// GetAPIVersion returns the anthropic-version header value.
func (c *Config) GetAPIVersion() string {
	if c.Generator.APIVersion == "" {
		return DefaultAnthropicVersion
	}
	return c.Generator.APIVersion
}

// GetSandboxBinary returns the sandbox runtime executable name.
func (c *Config) GetSandboxBinary() string {
	if c.Sandbox.Binary == "" {
		return DefaultSandboxBinary
	}
	return c.Sandbox.Binary
}

// GetSandboxSubcommand returns the runtime's "run script" subcommand.
func (c *Config) GetSandboxSubcommand() string {
	if c.Sandbox.RunSubcommand == "" {
		return DefaultSandboxSubcommand
	}
	return c.Sandbox.RunSubcommand
}

// Redacted returns a copy safe to print. The key keeps its last four characters.
func (c Config) Redacted() Config {
	out := c
	key := strings.TrimSpace(c.AnthropicAPIKey)
	switch {
	case key == "":
		out.AnthropicAPIKey = ""
	case len(key) <= 8:
		out.AnthropicAPIKey = "****"
	default:
		out.AnthropicAPIKey = "****" + key[len(key)-4:]
	}
	return out
}

// ValidateConsistency checks the values a user can get wrong in the file.
func (c *Config) ValidateConsistency() error {
	if c.Generator.MaxTokens < 0 {
		return fmt.Errorf("generator.max_tokens must not be negative, got %d", c.Generator.MaxTokens)
	}
	if c.Generator.Endpoint != "" {
		u, err := url.Parse(c.Generator.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("generator.endpoint %q is not an absolute URL", c.Generator.Endpoint)
		}
	}
	if strings.ContainsAny(c.Sandbox.Binary, " \t") {
		return fmt.Errorf("sandbox.binary %q must be a single executable name", c.Sandbox.Binary)
	}
	return nil
}
