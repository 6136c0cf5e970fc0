package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/ergo/assets"
	"github.com/doeshing/ergo/internal/ports"
)

// SetAPIKey persists key to the config file.
func SetAPIKey(out io.Writer, provider ports.ConfigProvider, key string) error {
	if provider == nil {
		return errors.New(ErrConfigLoaderUnavailable)
	}
	if err := provider.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	fmt.Fprintln(out, color.GreenString(MsgAPIKeySaved))
	fmt.Fprintf(out, "Config file: %s\n", provider.Path())
	return nil
}

// ShowConfigInfo prints where configuration lives and what is in effect.
func ShowConfigInfo(ctx context.Context, out io.Writer, provider ports.ConfigProvider, logPath string) error {
	if provider == nil {
		return errors.New(ErrConfigLoaderUnavailable)
	}

	fmt.Fprintf(out, "Configuration file: %s\n", provider.Path())
	if provider.Exists() {
		fmt.Fprintln(out, "Status: Found")
	} else {
		fmt.Fprintln(out, "Status: Not found (using defaults)")
	}

	cfg, err := provider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.HasAPIKey() {
		fmt.Fprintln(out, "API Key: Set")
	} else {
		fmt.Fprintln(out, "API Key: "+color.YellowString("Not set"))
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Fprintln(out, "\nEffective configuration:")
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(out, "  %s\n", line)
	}

	if !provider.Exists() {
		fmt.Fprintf(out, "\nExample %s:\n", provider.Path())
		out.Write(assets.DefaultConfigTOML)
	}

	fmt.Fprintf(out, "\nLog file: %s\n", logPath)
	fmt.Fprintln(out, "\nTo set API key:")
	fmt.Fprintln(out, "  ergo --set-api-key <your-key>")
	fmt.Fprintln(out, "\nOr set environment variable:")
	fmt.Fprintln(out, "  export ANTHROPIC_API_KEY=<your-key>")
	return nil
}
