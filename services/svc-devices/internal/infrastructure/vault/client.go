package vault

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	"github.com/hashicorp/vault/api"
)

func NewClient(cfg config.SecretsStorage) (*api.Client, error) {
	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout
	vaultConfig.MaxRetries = cfg.MaxRetries

	if cfg.TLSSkipVerify {
		vaultConfig.HttpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("creating Vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return client, nil
}
