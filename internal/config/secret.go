package config

import (
	"os"
)

// Secret is a string value that must never be printed. Values may refer to
// environment variables using the ${VAR_NAME} syntax, for example:
//
//	"repositoryPassword": "${GIT_TOKEN}"
//
// The reference is resolved when Value is called, not when the configuration
// is parsed.
type Secret string

// Value returns the secret with environment variable references expanded.
// NB: only environment variables are supported as an external source so far.
func (s Secret) Value() string {
	return os.ExpandEnv(string(s))
}

func (s Secret) String() string {
	if s == "" {
		return "<empty>"
	}
	return "*******"
}

// Username returns the repository username with environment variable
// references expanded.
func (c *Config) Username() string {
	return os.ExpandEnv(c.RepositoryUsername)
}
