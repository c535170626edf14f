package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/priy-am/url-shortener-service/internal/metrics"
	"github.com/priy-am/url-shortener-service/internal/model"
)

var (
	ErrURLNotFound   = errors.New("URL not found")
	ErrDuplicateCode = errors.New("short code already exists")
	ErrDatabaseError = errors.New("database error")
)

const dbTimeout = 5 * time.Second

// MappingStore is the single source of truth for UrlMapping records.
// All mutation goes through its atomic operations; callers never hold
// long-lived references into the store.
type MappingStore interface {
	// InsertIfAbsent atomically claims code for longURL. Exactly one of two
	// concurrent callers with the same code succeeds; the loser gets
	// ErrDuplicateCode.
	InsertIfAbsent(ctx context.Context, code, longURL string) (*model.UrlMapping, error)
	// FindByCode returns the mapping without touching its click count.
	FindByCode(ctx context.Context, code string) (*model.UrlMapping, error)
	// IncrementClicks atomically bumps the counter and returns the
	// post-increment state, so the result reflects the visit that caused it.
	IncrementClicks(ctx context.Context, code string) (*model.UrlMapping, error)
	// ListAll returns every mapping, newest first.
	ListAll(ctx context.Context) ([]model.UrlMapping, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Ping(ctx context.Context) error
}

// PostgresMappingStore implements MappingStore on pgx, with an optional
// redis read-through cache on the read-only lookup path.
type PostgresMappingStore struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewPostgresMappingStore(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) *PostgresMappingStore {
	return &PostgresMappingStore{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		logger:      zap.L().With(zap.String("component", "PostgresMappingStore")),
	}
}

func (r *PostgresMappingStore) InsertIfAbsent(ctx context.Context, code, longURL string) (*model.UrlMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	mapping := &model.UrlMapping{Code: code, LongURL: longURL}
	err := r.db.QueryRow(ctx,
		`INSERT INTO urls (code, long_url) VALUES ($1, $2)
		 ON CONFLICT (code) DO NOTHING
		 RETURNING clicks, created_at`,
		code, longURL,
	).Scan(&mapping.Clicks, &mapping.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT swallowed the insert: the code is taken.
			return nil, ErrDuplicateCode
		}
		r.logger.Error("Failed to insert mapping", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return mapping, nil
}

func (r *PostgresMappingStore) FindByCode(ctx context.Context, code string) (*model.UrlMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if cached := r.cacheGet(ctx, code); cached != nil {
		return cached, nil
	}

	mapping := &model.UrlMapping{}
	err := r.db.QueryRow(ctx,
		"SELECT code, long_url, clicks, created_at FROM urls WHERE code = $1",
		code,
	).Scan(&mapping.Code, &mapping.LongURL, &mapping.Clicks, &mapping.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Mapping not found", zap.String("code", code))
			return nil, ErrURLNotFound
		}
		r.logger.Error("Database query error", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	r.cacheSet(ctx, mapping)
	return mapping, nil
}

func (r *PostgresMappingStore) IncrementClicks(ctx context.Context, code string) (*model.UrlMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	start := time.Now()
	mapping := &model.UrlMapping{}
	err := r.db.QueryRow(ctx,
		`UPDATE urls SET clicks = clicks + 1 WHERE code = $1
		 RETURNING code, long_url, clicks, created_at`,
		code,
	).Scan(&mapping.Code, &mapping.LongURL, &mapping.Clicks, &mapping.CreatedAt)
	metrics.DBQueryDuration.WithLabelValues("increment_clicks").Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Mapping not found", zap.String("code", code))
			return nil, ErrURLNotFound
		}
		r.logger.Error("Failed to increment clicks", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	// Refresh the cache with the post-increment state so the stats path
	// lags by at most one cache TTL.
	r.cacheSet(ctx, mapping)
	return mapping, nil
}

func (r *PostgresMappingStore) ListAll(ctx context.Context) ([]model.UrlMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	start := time.Now()
	rows, err := r.db.Query(ctx,
		"SELECT code, long_url, clicks, created_at FROM urls ORDER BY created_at DESC, code")
	metrics.DBQueryDuration.WithLabelValues("list_all").Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("Failed to list mappings", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	mappings := make([]model.UrlMapping, 0)
	for rows.Next() {
		var m model.UrlMapping
		if err := rows.Scan(&m.Code, &m.LongURL, &m.Clicks, &m.CreatedAt); err != nil {
			r.logger.Error("Failed to scan mapping row", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Row iteration error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return mappings, nil
}

func (r *PostgresMappingStore) CodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM urls WHERE code = $1", code).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check code existence", zap.Error(err), zap.String("code", code))
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return count > 0, nil
}

func (r *PostgresMappingStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *PostgresMappingStore) cacheGet(ctx context.Context, code string) *model.UrlMapping {
	if r.redisClient == nil {
		return nil
	}

	val, err := r.redisClient.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("Cache error", zap.Error(err), zap.String("code", code))
		}
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil
	}

	mapping := &model.UrlMapping{}
	if err := json.Unmarshal([]byte(val), mapping); err != nil {
		r.logger.Warn("Failed to decode cached mapping", zap.Error(err), zap.String("code", code))
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil
	}

	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	r.logger.Debug("Mapping found in cache", zap.String("code", code))
	return mapping
}

func (r *PostgresMappingStore) cacheSet(ctx context.Context, mapping *model.UrlMapping) {
	if r.redisClient == nil {
		return
	}

	payload, err := json.Marshal(mapping)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, cacheKey(mapping.Code), payload, r.cacheTTL).Err(); err != nil {
		r.logger.Warn("Failed to cache mapping", zap.Error(err), zap.String("code", mapping.Code))
	}
}

func cacheKey(code string) string {
	return "url:" + code
}
