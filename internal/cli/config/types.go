// Package config provides configuration management for the DBCForge CLI.
//
// Precedence (highest to lowest): flags > environment variables >
// config file > defaults.
package config

// Config holds all CLI configuration options.
type Config struct {
	DBCDir      string `koanf:"dbc_dir"`
	PatchesDir  string `koanf:"patches_dir"`
	OutDir      string `koanf:"out_dir"`
	SchemaDir   string `koanf:"schema_dir"`
	IncludesDir string `koanf:"includes_dir"`
	Verbose     bool   `koanf:"verbose"`
	Quiet       bool   `koanf:"quiet"`
}

// Default configuration values.
const (
	DefaultDBCDir      = "dbc"
	DefaultPatchesDir  = "patches"
	DefaultOutDir      = "build"
	DefaultSchemaDir   = "schema"
	DefaultIncludesDir = "includes"
)
