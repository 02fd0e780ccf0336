package config

import "time"

// Default values.
const (
	DefaultOutputRoot     = "restored_repos"
	DefaultManifest       = "exhume-manifest.toml"
	DefaultCloneRoot      = ""
	DefaultExtensionsFile = "excluded_file_extensions.txt"
	DefaultAPITimeout     = 10 * time.Second
	DefaultAPIRate        = 5.0
	DefaultLogLevel       = "warn"
	DefaultLogJSON        = false
	DefaultOTLPInsecure   = false
)

// DefaultDotenvFile is read from the working directory for tokens.
const DefaultDotenvFile = ".env"
