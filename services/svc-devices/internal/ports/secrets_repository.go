package ports

import (
	"context"

	"github.com/hashicorp/vault/api"
)

type (
	// SecretsRepository reads secrets from a Vault compatible backend.
	SecretsRepository interface {
		SetToken(v string)
		GetSecrets(ctx context.Context, path string) (*api.Secret, error)
	}
)
