package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/breachmon/breachmon/internal/database/models"
	"go.etcd.io/bbolt"
)

var (
	bucketAccounts = []byte("Accounts")
	bucketAlerts   = []byte("Alerts")
)

// BoltDB implements the Database interface using bbolt.
type BoltDB struct {
	db   *bbolt.DB
	path string
}

// NewBoltDB opens (or creates) the bolt file and sets up buckets.
func NewBoltDB(cfg *DatabaseConfig) (*BoltDB, error) {
	db, err := bbolt.Open(cfg.Path, 0o600, nil)
	if err != nil {
		return nil, err
	}

	boltDB := &BoltDB{
		db:   db,
		path: cfg.Path,
	}

	if err := boltDB.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return boltDB, nil
}

// Initialize sets up the necessary buckets.
func (b *BoltDB) Initialize(ctx context.Context) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAccounts); err != nil {
			return fmt.Errorf("create Accounts bucket: %v", err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketAlerts); err != nil {
			return fmt.Errorf("create Alerts bucket: %v", err)
		}
		return nil
	})
}

func (b *BoltDB) Close(ctx context.Context) error {
	return b.db.Close()
}

// alertKey builds the composite Alerts key for an account and breach name.
func alertKey(account, breachName string) []byte {
	return []byte(account + "|" + breachName)
}

func alertPrefix(account string) []byte {
	return []byte(account + "|")
}

// AddAccount adds a new account record, skipping accounts already present.
func (b *BoltDB) AddAccount(ctx context.Context, record models.AccountRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AccountRecord: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAccounts)
		if bucket.Get([]byte(record.Account)) != nil {
			// Account already exists
			return nil
		}
		return bucket.Put([]byte(record.Account), data)
	})
}

// UpdateAccount overwrites an existing account record.
func (b *BoltDB) UpdateAccount(ctx context.Context, account string, record models.AccountRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AccountRecord: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAccounts)
		if bucket.Get([]byte(account)) == nil {
			return ErrAccountNotFound
		}
		return bucket.Put([]byte(account), data)
	})
}

// DeleteAccount removes an account record and all its alert entries.
func (b *BoltDB) DeleteAccount(ctx context.Context, account string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketAccounts).Delete([]byte(account)); err != nil {
			return err
		}

		alerts := tx.Bucket(bucketAlerts)
		cursor := alerts.Cursor()
		prefix := alertPrefix(account)
		for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cursor.Next() {
			if err := alerts.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAccount retrieves a specific account with its alert state.
func (b *BoltDB) GetAccount(ctx context.Context, account string) (models.AccountStatus, error) {
	var status models.AccountStatus

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAccounts).Get([]byte(account))
		if data == nil {
			return ErrAccountNotFound
		}

		var record models.AccountRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to unmarshal AccountRecord: %w", err)
		}

		status = statusFromRecord(record, readAlerts(tx, account))
		return nil
	})
	return status, err
}

// LoadAccounts retrieves all account statuses.
func (b *BoltDB) LoadAccounts(ctx context.Context) ([]models.AccountStatus, error) {
	var statuses []models.AccountStatus

	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			var record models.AccountRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal AccountRecord %s: %w", k, err)
			}
			statuses = append(statuses, statusFromRecord(record, readAlerts(tx, record.Account)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// LoadAccountsPaginated retrieves a page of account statuses and the total
// count after filtering.
func (b *BoltDB) LoadAccountsPaginated(ctx context.Context, page, perPage int, filterBreached *bool) ([]models.AccountStatus, int, error) {
	statuses, err := b.LoadAccounts(ctx)
	if err != nil {
		return nil, 0, err
	}
	return paginateStatuses(statuses, page, perPage, filterBreached)
}

// MarkAsAlerted records the alert time for an (account, breach) pair.
func (b *BoltDB) MarkAsAlerted(ctx context.Context, account, breachName string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		return tx.Bucket(bucketAlerts).Put(alertKey(account, breachName), []byte(now))
	})
}

// GetTotalAccounts returns the number of watched accounts.
func (b *BoltDB) GetTotalAccounts(ctx context.Context) (int, error) {
	var total int
	err := b.db.View(func(tx *bbolt.Tx) error {
		total = tx.Bucket(bucketAccounts).Stats().KeyN
		return nil
	})
	return total, err
}

// GetGlobalLastCheckAt returns the most recent LastCheckAt among all accounts.
func (b *BoltDB) GetGlobalLastCheckAt(ctx context.Context) (time.Time, error) {
	var latest time.Time
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			var record models.AccountRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return nil // skip unreadable records for stats
			}
			if record.LastCheckAt.After(latest) {
				latest = record.LastCheckAt
			}
			return nil
		})
	})
	return latest, err
}

// GetTotalBreached returns the number of accounts with at least one alert.
func (b *BoltDB) GetTotalBreached(ctx context.Context) (int, error) {
	breached := make(map[string]struct{})
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAlerts).ForEach(func(k, v []byte) error {
			account, _, found := bytes.Cut(k, []byte("|"))
			if found {
				breached[string(account)] = struct{}{}
			}
			return nil
		})
	})
	return len(breached), err
}

// GetBreachedToday returns the number of alerts raised in the last 24 hours.
func (b *BoltDB) GetBreachedToday(ctx context.Context) (int, error) {
	var count int
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAlerts).ForEach(func(k, v []byte) error {
			alertedAt, err := time.Parse(time.RFC3339, string(v))
			if err != nil {
				return nil
			}
			if alertedAt.After(cutoff) {
				count++
			}
			return nil
		})
	})
	return count, err
}

// readAlerts collects the alert map for one account inside a view
// transaction.
func readAlerts(tx *bbolt.Tx, account string) map[string]time.Time {
	alerts := make(map[string]time.Time)
	cursor := tx.Bucket(bucketAlerts).Cursor()
	prefix := alertPrefix(account)
	for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
		breachName := string(bytes.TrimPrefix(k, prefix))
		alertedAt, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			continue
		}
		alerts[breachName] = alertedAt
	}
	return alerts
}

func statusFromRecord(record models.AccountRecord, alerts map[string]time.Time) models.AccountStatus {
	return models.AccountStatus{
		Account:     record.Account,
		Comment:     record.Comment,
		LastCheckAt: record.LastCheckAt,
		PasteCount:  record.PasteCount,
		Breaches:    alerts,
	}
}

// paginateStatuses applies the breached filter and slices out one page.
// Shared by the bolt and redis backends, which both filter in memory.
func paginateStatuses(statuses []models.AccountStatus, page, perPage int, filterBreached *bool) ([]models.AccountStatus, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	var filtered []models.AccountStatus
	for _, status := range statuses {
		if filterBreached != nil && status.Breached() != *filterBreached {
			continue
		}
		filtered = append(filtered, status)
	}

	total := len(filtered)
	start := (page - 1) * perPage
	if start >= total {
		return []models.AccountStatus{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}
