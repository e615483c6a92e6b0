package secrets

import (
	"context"
	"os"
)

// EnvSource resolves secrets from process environment variables.
type EnvSource struct{}

func (EnvSource) Lookup(_ context.Context, name string) (string, bool, error) {
	value, ok := os.LookupEnv(name)
	return value, ok, nil
}
