package database

import (
	"context"
	"errors"
	"time"

	"github.com/breachmon/breachmon/internal/database/models"
)

// Database defines the methods required for watched-account storage.
type Database interface {
	// Initialize sets up the necessary buckets or structures.
	Initialize(ctx context.Context) error

	Close(ctx context.Context) error

	// AddAccount adds a new account record. Adding an account that already
	// exists is a no-op.
	AddAccount(ctx context.Context, record models.AccountRecord) error

	// UpdateAccount updates an existing account record.
	UpdateAccount(ctx context.Context, account string, record models.AccountRecord) error

	// DeleteAccount removes an account record and its alert state.
	DeleteAccount(ctx context.Context, account string) error

	// GetAccount retrieves a specific account with its alert state.
	GetAccount(ctx context.Context, account string) (models.AccountStatus, error)

	LoadAccounts(ctx context.Context) ([]models.AccountStatus, error)

	// LoadAccountsPaginated retrieves a page of account statuses and the
	// total count. filterBreached nil applies no filter; true keeps only
	// accounts seen in a breach; false only accounts never breached.
	LoadAccountsPaginated(ctx context.Context, page, perPage int, filterBreached *bool) ([]models.AccountStatus, int, error)

	// MarkAsAlerted records that the account was alerted for a breach.
	MarkAsAlerted(ctx context.Context, account, breachName string) error

	// GetTotalAccounts returns the number of watched accounts.
	GetTotalAccounts(ctx context.Context) (int, error)

	// GetGlobalLastCheckAt returns the most recent LastCheckAt among all
	// accounts.
	GetGlobalLastCheckAt(ctx context.Context) (time.Time, error)

	// GetTotalBreached returns the number of accounts seen in at least one
	// breach.
	GetTotalBreached(ctx context.Context) (int, error)

	// GetBreachedToday returns the number of breach alerts raised within
	// the last 24 hours.
	GetBreachedToday(ctx context.Context) (int, error)
}

var ErrAccountNotFound = errors.New("account not found")
