package config

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/architeacher/devices-api/services/svc-devices/internal/ports"
	"github.com/cenkalti/backoff/v5"
)

const databaseSecretName = "database"

var ErrMalformedSecret = errors.New("malformed secret")

// DatabaseSecretPath is the KV v2 data path holding the database credentials.
func DatabaseSecretPath(mountPath string) string {
	return path.Join(mountPath, "data", databaseSecretName)
}

// ApplySecrets overlays database credentials read from the secrets backend onto cfg.
// It is a no-op when secrets storage is disabled. Missing keys keep their env values.
func ApplySecrets(ctx context.Context, repo ports.SecretsRepository, cfg *ServiceConfig) error {
	if !cfg.SecretsStorage.Enabled {
		return nil
	}

	if cfg.SecretsStorage.Token != "" {
		repo.SetToken(cfg.SecretsStorage.Token)
	}

	secretPath := DatabaseSecretPath(cfg.SecretsStorage.MountPath)

	ctx, cancel := context.WithTimeout(ctx, cfg.SecretsStorage.Timeout)
	defer cancel()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 200 * time.Millisecond

	data, err := backoff.Retry(
		ctx,
		func() (map[string]any, error) {
			secret, err := repo.GetSecrets(ctx, secretPath)
			if err != nil {
				return nil, err
			}

			if secret == nil || secret.Data == nil {
				return nil, backoff.Permanent(fmt.Errorf("%w: nothing stored at %s", ErrMalformedSecret, secretPath))
			}

			values, ok := secret.Data["data"].(map[string]any)
			if !ok {
				return nil, backoff.Permanent(fmt.Errorf("%w: %s has no data key", ErrMalformedSecret, secretPath))
			}

			return values, nil
		},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(max(cfg.SecretsStorage.MaxRetries, 0))+1),
	)
	if err != nil {
		return fmt.Errorf("reading %s: %w", secretPath, err)
	}

	for key, value := range data {
		s, ok := value.(string)
		if !ok || s == "" {
			continue
		}

		switch key {
		case "POSTGRES_USERNAME", "username":
			cfg.Database.Username = s
		case "POSTGRES_PASSWORD", "password":
			cfg.Database.Password = s
		case "POSTGRES_HOST", "host":
			cfg.Database.Host = s
		}
	}

	return nil
}
