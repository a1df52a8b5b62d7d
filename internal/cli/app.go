package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/2beens/dailyfit/internal"
	"github.com/2beens/dailyfit/internal/config"
	"github.com/2beens/dailyfit/internal/logging"
	"github.com/2beens/dailyfit/internal/tracker"
	"github.com/2beens/dailyfit/pkg"

	log "github.com/sirupsen/logrus"
)

// trackerApp is one CLI invocation's view of the tracker: a loaded store over the configured storage.
type trackerApp struct {
	store   *tracker.Store
	storage *internal.Storage
}

func loadConfig() (*config.Config, error) {
	exists, err := pkg.PathExists(flagConfigPath, false)
	if err != nil {
		return nil, fmt.Errorf("check config path: %w", err)
	}

	var cfg *config.Config
	if exists {
		cfg, err = config.Load(flagEnv, flagConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		log.Debugf("no config at [%s], using local file storage", flagConfigPath)
		cfg = &config.Config{
			StorageBackend: config.StorageBackendFile,
			StorageKey:     config.DefaultStorageKey,
			FileStoreDir:   "./data",
		}
	}

	if flagDataDir != "" {
		cfg.StorageBackend = config.StorageBackendFile
		cfg.FileStoreDir = flagDataDir
	}
	return cfg, nil
}

func openTracker(ctx context.Context) (*trackerApp, error) {
	logging.Setup(logging.LoggerSetupParams{
		LogLevel: flagLogLevel,
	})

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	storage, err := internal.OpenStorage(ctx, internal.OpenStorageParams{
		Config:           cfg,
		RedisPassword:    os.Getenv("DAILYFIT_REDIS_PASS"),
		PostgresUser:     os.Getenv("DAILYFIT_POSTGRES_USER"),
		PostgresPassword: os.Getenv("DAILYFIT_POSTGRES_PASS"),
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	loc := cfg.Location()
	store := tracker.NewStore(tracker.NewStoreParams{
		KV:         storage.KV,
		StorageKey: cfg.StorageKey,
		Clock: func() time.Time {
			return time.Now().In(loc)
		},
	})
	store.Load(ctx)

	return &trackerApp{
		store:   store,
		storage: storage,
	}, nil
}

// Close waits for the last snapshot write before releasing the storage.
func (a *trackerApp) Close() {
	a.store.Close()
	a.storage.Close()
}
