// Package secrets resolves API credentials from AWS SSM Parameter Store.
// The only secret the application holds is the Groq API key, stored as a
// SecureString under "<prefix>/groq-api-key" and fetched once per process.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by Source.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Source reads decrypted secrets out of the parameter store. Consumers
// depend on the Fetch method through their own interface so they stay
// testable without real AWS calls.
type Source struct {
	api ssmAPI
}

// New creates a Source backed by the given SSM API implementation.
func New(api ssmAPI) (*Source, error) {
	if api == nil {
		return nil, errors.New("secrets: api must not be nil")
	}
	return &Source{api: api}, nil
}

// Fetch returns the decrypted value stored under name.
func (s *Source) Fetch(ctx context.Context, name string) (string, error) {
	if s.api == nil {
		return "", errors.New("secrets: source not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: name is required")
	}

	withDecryption := true
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("secrets: fetch %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("secrets: %q has no value", name)
	}
	return *out.Parameter.Value, nil
}
