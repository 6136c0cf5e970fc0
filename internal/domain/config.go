package domain

// Config mirrors ~/.abiogenesis/config.toml.
type Config struct {
	AnthropicAPIKey string            `toml:"anthropic_api_key" yaml:"anthropic_api_key"`
	Generator       GeneratorSettings `toml:"generator" yaml:"generator"`
	Sandbox         SandboxSettings   `toml:"sandbox" yaml:"sandbox"`
}

// GeneratorSettings configures the generation service endpoint.
type GeneratorSettings struct {
	Endpoint   string `toml:"endpoint" yaml:"endpoint"`
	Model      string `toml:"model" yaml:"model"`
	MaxTokens  int    `toml:"max_tokens" yaml:"max_tokens"`
	APIVersion string `toml:"api_version" yaml:"api_version"`
}

// SandboxSettings names the external runtime that executes generated scripts.
type SandboxSettings struct {
	Binary        string `toml:"binary" yaml:"binary"`
	RunSubcommand string `toml:"run_subcommand" yaml:"run_subcommand"`
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() Config {
	return Config{
		Generator: GeneratorSettings{
			Endpoint:   DefaultGeneratorEndpoint,
			Model:      DefaultGeneratorModel,
			MaxTokens:  DefaultMaxTokens,
			APIVersion: DefaultAnthropicVersion,
		},
		Sandbox: SandboxSettings{
			Binary:        DefaultSandboxBinary,
			RunSubcommand: DefaultSandboxSubcommand,
		},
	}
}
