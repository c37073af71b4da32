package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	token    string
	paths    []string
	failures int
	secret   *api.Secret
}

func (f *fakeSecrets) SetToken(v string) { f.token = v }

func (f *fakeSecrets) GetSecrets(_ context.Context, p string) (*api.Secret, error) {
	f.paths = append(f.paths, p)

	if f.failures > 0 {
		f.failures--

		return nil, errors.New("vault sealed")
	}

	return f.secret, nil
}

func secretsConfig() *ServiceConfig {
	return &ServiceConfig{
		SecretsStorage: SecretsStorage{
			Enabled:    true,
			Token:      "root",
			MountPath:  "svc-devices",
			Timeout:    5 * time.Second,
			MaxRetries: 2,
		},
		Database: Database{Username: "postgres", Password: "from-env", Host: "postgres"},
	}
}

func TestApplySecrets(t *testing.T) {
	t.Parallel()

	repo := &fakeSecrets{
		failures: 1,
		secret: &api.Secret{Data: map[string]any{
			"data": map[string]any{
				"POSTGRES_PASSWORD": "s3cret",
				"POSTGRES_USERNAME": "",
				"unrelated":         "x",
			},
		}},
	}

	cfg := secretsConfig()

	require.NoError(t, ApplySecrets(context.Background(), repo, cfg))

	require.Equal(t, "root", repo.token)
	require.Equal(t, []string{"svc-devices/data/database", "svc-devices/data/database"}, repo.paths)
	require.Equal(t, "s3cret", cfg.Database.Password)
	require.Equal(t, "postgres", cfg.Database.Username)
}

func TestApplySecrets_Disabled(t *testing.T) {
	t.Parallel()

	repo := &fakeSecrets{}
	cfg := secretsConfig()
	cfg.SecretsStorage.Enabled = false

	require.NoError(t, ApplySecrets(context.Background(), repo, cfg))
	require.Empty(t, repo.paths)
	require.Equal(t, "from-env", cfg.Database.Password)
}

func TestApplySecrets_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		secret *api.Secret
	}{
		{name: "missing secret"},
		{name: "missing data key", secret: &api.Secret{Data: map[string]any{"metadata": map[string]any{}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeSecrets{secret: tc.secret}

			err := ApplySecrets(context.Background(), repo, secretsConfig())
			require.ErrorIs(t, err, ErrMalformedSecret)
			require.Len(t, repo.paths, 1)
		})
	}
}

func TestApplySecrets_GivesUp(t *testing.T) {
	t.Parallel()

	repo := &fakeSecrets{failures: 10}

	err := ApplySecrets(context.Background(), repo, secretsConfig())
	require.ErrorContains(t, err, "vault sealed")
	require.Len(t, repo.paths, 3)
}
