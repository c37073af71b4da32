package bolt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	bbolt "go.etcd.io/bbolt"
)

const (
	fileMode    = 0o600
	openTimeout = 5 * time.Second
)

// Open opens the bbolt file at cfg.BoltPath, creating its directory when needed.
func Open(cfg config.Storage) (*bbolt.DB, error) {
	if dir := filepath.Dir(cfg.BoltPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating bolt directory %q: %w", dir, err)
		}
	}

	db, err := bbolt.Open(cfg.BoltPath, fileMode, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %q: %w", cfg.BoltPath, err)
	}

	return db, nil
}
