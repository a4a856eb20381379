package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration
type Config struct {
	Host      string
	Port      int
	Password  string
	DB        int
	ReportTTL time.Duration
	LockTTL   time.Duration
}

// LoadConfigFromEnv loads Redis configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	reportTTL, _ := time.ParseDuration(getEnv("VALIDATION_CACHE_TTL", "1h"))
	lockTTL, _ := time.ParseDuration(getEnv("IMPORT_LOCK_TTL", "15m"))

	return &Config{
		Host:      getEnv("REDIS_HOST", "localhost"),
		Port:      port,
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        db,
		ReportTTL: reportTTL,
		LockTTL:   lockTTL,
	}
}

// GetClient returns the global Redis client (singleton pattern)
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		config := LoadConfigFromEnv()

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}

		// Enable TLS if configured (required for managed Redis)
		if getEnv("REDIS_TLS_ENABLED", "false") == "true" {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}
	})

	return client, clientErr
}

// Close closes the Redis client
func Close() {
	if client != nil {
		client.Close()
	}
}

// ImportLocks guards projects against concurrent imports using SetNX
// leases. Satisfies the importer's Locker interface.
type ImportLocks struct {
	ttl time.Duration
}

func NewImportLocks() *ImportLocks {
	return &ImportLocks{ttl: LoadConfigFromEnv().LockTTL}
}

func importLockKey(ownerID, projectID string) string {
	return fmt.Sprintf("import-lock:%s:%s", ownerID, projectID)
}

// AcquireImportLock takes the project's import lease. The release func
// must be called once the import finishes, on success or failure.
func (l *ImportLocks) AcquireImportLock(ctx context.Context, ownerID, projectID string) (func(), bool, error) {
	client, err := GetClient()
	if err != nil {
		return nil, false, err
	}

	key := importLockKey(ownerID, projectID)
	ok, err := client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Del(ctx, key)
	}
	return release, true, nil
}

// ReportKey derives the validation cache key from the exported feed's
// content, so an unchanged project reuses its cached report.
func ReportKey(feed []byte) string {
	hash := sha256.Sum256(feed)
	return fmt.Sprintf("validation:%x", hash[:16])
}

// GetValidationReport retrieves a cached validator report. A cache miss
// returns nil, nil.
func GetValidationReport(ctx context.Context, key string) (json.RawMessage, error) {
	client, err := GetClient()
	if err != nil {
		return nil, err
	}

	data, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}

	return json.RawMessage(data), nil
}

// SetValidationReport caches a validator report.
func SetValidationReport(ctx context.Context, key string, report json.RawMessage) error {
	client, err := GetClient()
	if err != nil {
		return err
	}

	return client.Set(ctx, key, []byte(report), LoadConfigFromEnv().ReportTTL).Err()
}

// HealthCheck performs a health check on the Redis connection
func HealthCheck(ctx context.Context) error {
	client, err := GetClient()
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
