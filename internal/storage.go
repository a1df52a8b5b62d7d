package internal

import (
	"context"
	"fmt"
	"net"

	"github.com/2beens/dailyfit/internal/config"
	"github.com/2beens/dailyfit/internal/db"
	"github.com/2beens/dailyfit/internal/kvstore"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// snapshot is rewritten on every mutation, so cached entries only need to outlive a burst of reads
const storageCacheTTLSeconds = 300

// Storage is the key-value backend the tracker snapshot lives in, together with the
// clients it was built on.
type Storage struct {
	KV          kvstore.Store
	RedisClient *redis.Client
	DBPool      *pgxpool.Pool
}

type OpenStorageParams struct {
	Config           *config.Config
	RedisPassword    string
	PostgresUser     string
	PostgresPassword string
	TracingEnabled   bool
}

// OpenStorage builds the backend selected by storage_backend. A redis client is
// also created whenever redis is configured, since request rate limiting uses it.
func OpenStorage(ctx context.Context, params OpenStorageParams) (*Storage, error) {
	cfg := params.Config
	storage := &Storage{}

	if cfg.RedisHost != "" && cfg.RedisPort != "" {
		storage.RedisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})

		rdbStatus := storage.RedisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	switch cfg.StorageBackend {
	case config.StorageBackendRedis:
		storage.KV = kvstore.NewRedisStore(storage.RedisClient)
	case config.StorageBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		storage.DBPool = dbPool

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		pgStore := kvstore.NewPostgresStore(dbPool, cfg.PostgresKVTable)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			storage.Close()
			return nil, fmt.Errorf("ensure kv schema: %w", err)
		}
		storage.KV = pgStore
	case config.StorageBackendFile:
		fileStore, err := kvstore.NewFileStore(cfg.FileStoreDir)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("new file store: %w", err)
		}
		storage.KV = fileStore
	case config.StorageBackendMemory:
		log.Warnln("memory storage backend: tracker state will not survive a restart")
		storage.KV = kvstore.NewMemoryStore()
	default:
		storage.Close()
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}

	if cfg.StorageCacheMB > 0 {
		storage.KV = kvstore.NewCachedStore(storage.KV, cfg.StorageCacheMB, storageCacheTTLSeconds)
	}

	log.Infof("tracker storage: %s (cache: %d MB)", cfg.StorageBackend, cfg.StorageCacheMB)
	return storage, nil
}

// Collectors returns the prometheus collectors of the underlying clients.
func (s *Storage) Collectors() []prometheus.Collector {
	var collectors []prometheus.Collector
	if s.DBPool != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			s.DBPool,
			map[string]string{"db_name": s.DBPool.Config().ConnConfig.Database},
		))
	}
	return collectors
}

func (s *Storage) Close() {
	if s.RedisClient != nil {
		if err := s.RedisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.DBPool != nil {
		log.Debugln("closing db pool ...")
		s.DBPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}
