package assets

import (
	_ "embed"
)

// DefaultConfigTOML is a commented config file holding every built-in default.
//
//go:embed defaults/config.toml
var DefaultConfigTOML []byte
