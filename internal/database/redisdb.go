package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/breachmon/breachmon/internal/database/models"
	"github.com/go-redis/redis/v8"
)

const (
	redisAccountPrefix = "account:"
	redisAlertPrefix   = "alerts:"
)

// RedisDB implements the Database interface using Redis. Account records
// live under account:<account> as JSON; alert state is a hash under
// alerts:<account> mapping breach name to RFC3339 alert time.
type RedisDB struct {
	client *redis.Client
}

// NewRedisDB initializes a new RedisDB instance.
func NewRedisDB(cfg *DatabaseConfig) (*RedisDB, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return &RedisDB{client: rdb}, nil
}

// Initialize sets up necessary Redis structures if needed.
func (r *RedisDB) Initialize(ctx context.Context) error {
	// Redis is schema-less; nothing to create.
	return nil
}

func (r *RedisDB) Close(ctx context.Context) error {
	return r.client.Close()
}

// AddAccount adds a new account record, skipping accounts already present.
func (r *RedisDB) AddAccount(ctx context.Context, record models.AccountRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AccountRecord: %w", err)
	}

	// SetNX keeps the first write when the account is already watched.
	return r.client.SetNX(ctx, redisAccountPrefix+record.Account, data, 0).Err()
}

// UpdateAccount overwrites an existing account record.
func (r *RedisDB) UpdateAccount(ctx context.Context, account string, record models.AccountRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AccountRecord: %w", err)
	}

	key := redisAccountPrefix + account
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrAccountNotFound
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

// DeleteAccount removes an account record and its alert state.
func (r *RedisDB) DeleteAccount(ctx context.Context, account string) error {
	return r.client.Del(ctx, redisAccountPrefix+account, redisAlertPrefix+account).Err()
}

// GetAccount retrieves a specific account with its alert state.
func (r *RedisDB) GetAccount(ctx context.Context, account string) (models.AccountStatus, error) {
	val, err := r.client.Get(ctx, redisAccountPrefix+account).Result()
	if err == redis.Nil {
		return models.AccountStatus{}, ErrAccountNotFound
	}
	if err != nil {
		return models.AccountStatus{}, err
	}

	var record models.AccountRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return models.AccountStatus{}, fmt.Errorf("failed to unmarshal AccountRecord: %w", err)
	}

	alerts, err := r.readAlerts(ctx, account)
	if err != nil {
		return models.AccountStatus{}, err
	}
	return statusFromRecord(record, alerts), nil
}

// LoadAccounts retrieves all account statuses.
func (r *RedisDB) LoadAccounts(ctx context.Context) ([]models.AccountStatus, error) {
	var statuses []models.AccountStatus

	iter := r.client.Scan(ctx, 0, redisAccountPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		account := strings.TrimPrefix(iter.Val(), redisAccountPrefix)
		status, err := r.GetAccount(ctx, account)
		if err != nil {
			continue
		}
		statuses = append(statuses, status)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// LoadAccountsPaginated retrieves a page of account statuses and the total
// count after filtering.
func (r *RedisDB) LoadAccountsPaginated(ctx context.Context, page, perPage int, filterBreached *bool) ([]models.AccountStatus, int, error) {
	statuses, err := r.LoadAccounts(ctx)
	if err != nil {
		return nil, 0, err
	}
	return paginateStatuses(statuses, page, perPage, filterBreached)
}

// MarkAsAlerted records the alert time for an (account, breach) pair.
func (r *RedisDB) MarkAsAlerted(ctx context.Context, account, breachName string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return r.client.HSet(ctx, redisAlertPrefix+account, breachName, now).Err()
}

// GetTotalAccounts returns the number of watched accounts.
func (r *RedisDB) GetTotalAccounts(ctx context.Context) (int, error) {
	var total int
	iter := r.client.Scan(ctx, 0, redisAccountPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		total++
	}
	return total, iter.Err()
}

// GetGlobalLastCheckAt returns the most recent LastCheckAt among all accounts.
func (r *RedisDB) GetGlobalLastCheckAt(ctx context.Context) (time.Time, error) {
	statuses, err := r.LoadAccounts(ctx)
	if err != nil {
		return time.Time{}, err
	}

	var latest time.Time
	for _, status := range statuses {
		if status.LastCheckAt.After(latest) {
			latest = status.LastCheckAt
		}
	}
	return latest, nil
}

// GetTotalBreached returns the number of accounts with at least one alert.
func (r *RedisDB) GetTotalBreached(ctx context.Context) (int, error) {
	var total int
	iter := r.client.Scan(ctx, 0, redisAlertPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		size, err := r.client.HLen(ctx, iter.Val()).Result()
		if err != nil {
			return 0, err
		}
		if size > 0 {
			total++
		}
	}
	return total, iter.Err()
}

// GetBreachedToday returns the number of alerts raised in the last 24 hours.
func (r *RedisDB) GetBreachedToday(ctx context.Context) (int, error) {
	var count int
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	iter := r.client.Scan(ctx, 0, redisAlertPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		fields, err := r.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return 0, err
		}
		for _, raw := range fields {
			alertedAt, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				continue
			}
			if alertedAt.After(cutoff) {
				count++
			}
		}
	}
	return count, iter.Err()
}

func (r *RedisDB) readAlerts(ctx context.Context, account string) (map[string]time.Time, error) {
	fields, err := r.client.HGetAll(ctx, redisAlertPrefix+account).Result()
	if err != nil {
		return nil, err
	}

	alerts := make(map[string]time.Time, len(fields))
	for breachName, raw := range fields {
		alertedAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		alerts[breachName] = alertedAt
	}
	return alerts, nil
}
