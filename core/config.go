package core

import (
	"fmt"
	"strings"
)

type Config struct {
	ServiceName   string   `koanf:"service_name" mapstructure:"service_name"`
	InitialOwners []string `koanf:"initial_owners" mapstructure:"initial_owners"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "ownership",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	for idx, owner := range c.InitialOwners {
		if strings.TrimSpace(owner) == "" {
			return fmt.Errorf("core: initial_owners[%d] is empty", idx)
		}
	}
	return nil
}

// Owners returns the configured initial owners as principals.
func (c Config) Owners() []Principal {
	out := make([]Principal, 0, len(c.InitialOwners))
	for _, owner := range c.InitialOwners {
		out = append(out, NormalizePrincipal(owner))
	}
	return out
}
