// Package secrets abstracts retrieval of API credentials so the rest of the
// service never reads secret material from the environment directly.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider resolves a secret reference to its value.
type Provider interface {
	// GetSecret resolves a reference to a secret value.
	// It returns an error if the reference is missing or cannot be resolved.
	GetSecret(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves references of the form "env://NAME" from the process
// environment. A reference without the env:// prefix is treated as a literal
// value, which keeps local development setups simple.
type EnvProvider struct{}

// GetSecret implements the Provider interface.
func (EnvProvider) GetSecret(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("secrets: empty reference")
	}

	name, ok := strings.CutPrefix(ref, "env://")
	if !ok {
		return ref, nil
	}

	value, found := os.LookupEnv(name)
	if !found || value == "" {
		return "", fmt.Errorf("secrets: %s is not set", name)
	}
	return value, nil
}

// Static is a fixed map of references to values, used in tests.
type Static map[string]string

// GetSecret implements the Provider interface.
func (s Static) GetSecret(_ context.Context, ref string) (string, error) {
	value, ok := s[ref]
	if !ok {
		return "", fmt.Errorf("secrets: unknown reference %q", ref)
	}
	return value, nil
}

var _ Provider = EnvProvider{}
var _ Provider = Static(nil)
