package breachmon

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/breachmon/breachmon/internal/database"
	"github.com/breachmon/breachmon/internal/database/models"
	"github.com/breachmon/breachmon/pkg/hibp"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// BreachAPI is the slice of the HIBP client the monitor depends on.
type BreachAPI interface {
	GetBreachesForAccount(ctx context.Context, account string) ([]hibp.Breach, error)
	GetPastesForAccount(ctx context.Context, account string) ([]hibp.Paste, error)
}

// Alerter delivers breach notifications.
type Alerter interface {
	Send(title, message string)
}

// MonitorConfig holds the configuration for the monitoring process.
type MonitorConfig struct {
	PollInterval  time.Duration
	CheckInterval time.Duration
	Notifier      Alerter
	Client        BreachAPI
	Database      database.Database
}

// Monitor periodically checks watched accounts against HIBP and alerts once
// per newly discovered (account, breach) pair.
type Monitor struct {
	Config MonitorConfig
	sem    *semaphore.Weighted
}

// NewMonitor initializes a new Monitor.
func NewMonitor(config MonitorConfig, maxConcurrency int64) *Monitor {
	return &Monitor{
		Config: config,
		sem:    semaphore.NewWeighted(maxConcurrency),
	}
}

// AddAccount adds a new account record to the database.
func (m *Monitor) AddAccount(ctx context.Context, record models.AccountRecord) error {
	return m.Config.Database.AddAccount(ctx, record)
}

// ImportAccountsFromFile imports watched accounts from a txt or csv file.
func (m *Monitor) ImportAccountsFromFile(ctx context.Context, filePath string) error {
	var records []models.AccountRecord
	var err error

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		records, err = ReadAccountsCSV(filePath)
	default:
		records, err = ReadAccountsFile(filePath)
	}
	if err != nil {
		return fmt.Errorf("failed to read accounts from file: %w", err)
	}

	for _, record := range records {
		if err := m.AddAccount(ctx, record); err != nil {
			logrus.WithError(err).WithField("account", record.Account).Error("Failed to add account")
			continue
		}
	}

	logrus.WithField("record_count", len(records)).Info("Imported accounts successfully")
	return nil
}

// LoadAccountsPaginated retrieves a page of account statuses and the total
// count. It accepts an optional filter to retrieve only breached or clean
// accounts.
func (m *Monitor) LoadAccountsPaginated(ctx context.Context, page, perPage int, filterBreached *bool) ([]models.AccountStatus, int, error) {
	statuses, total, err := m.Config.Database.LoadAccountsPaginated(ctx, page, perPage, filterBreached)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load paginated accounts: %w", err)
	}
	return statuses, total, nil
}

// Start begins the monitoring process.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.Config.PollInterval)
	defer ticker.Stop()

	for {
		m.CheckAllAccounts(ctx)
		select {
		case <-ctx.Done():
			logrus.Info("Monitoring stopped due to context cancellation")
			return
		case <-ticker.C:
			// Continue to next iteration
		}
	}
}

// CheckAllAccounts iterates over all watched accounts and checks them.
func (m *Monitor) CheckAllAccounts(ctx context.Context) {
	var wg sync.WaitGroup

	statuses, err := m.Config.Database.LoadAccounts(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to load accounts for checking")
		return
	}

	for _, status := range statuses {
		// Acquire semaphore to limit concurrency
		if err := m.sem.Acquire(ctx, 1); err != nil {
			logrus.WithError(err).Error("Failed to acquire semaphore")
			continue
		}

		wg.Add(1)
		go func(st models.AccountStatus) {
			defer wg.Done()
			defer m.sem.Release(1)
			m.checkAccount(ctx, st)
		}(status)
	}
	wg.Wait()
}

// checkAccount checks a single account for new breaches and pastes.
func (m *Monitor) checkAccount(ctx context.Context, status models.AccountStatus) {
	if !status.LastCheckAt.IsZero() && time.Since(status.LastCheckAt) < m.Config.CheckInterval {
		logrus.WithFields(logrus.Fields{
			"account":      status.Account,
			"last_checked": status.LastCheckAt,
		}).Debug("Skipping account check; checked recently")
		return
	}

	logger := logrus.WithField("account", status.Account)

	breaches, err := m.Config.Client.GetBreachesForAccount(ctx, status.Account)
	if err != nil {
		logger.WithError(err).Error("Error checking account for breaches")
		return
	}

	for _, breach := range breaches {
		if _, alerted := status.Breaches[breach.Name]; alerted {
			continue
		}

		logger.WithField("breach", breach.Name).Info("Account found in new breach")

		message := fmt.Sprintf("Account **%s** appeared in breach **%s** (%s).\nBreach date: %s, %d accounts affected.",
			status.Account, breach.Title, breach.Domain, breach.BreachDate, breach.PwnCount)
		m.Config.Notifier.Send("Breach Found", message)

		if err := m.Config.Database.MarkAsAlerted(ctx, status.Account, breach.Name); err != nil {
			logger.WithError(err).Error("Failed to update database with alerted breach")
		}
	}

	pastes, err := m.Config.Client.GetPastesForAccount(ctx, status.Account)
	if err != nil {
		logger.WithError(err).Warn("Error checking account for pastes")
	} else {
		if len(pastes) > status.PasteCount {
			message := fmt.Sprintf("Account **%s** now appears in %d pastes (was %d).",
				status.Account, len(pastes), status.PasteCount)
			m.Config.Notifier.Send("Paste Found", message)
		}
		status.PasteCount = len(pastes)
	}

	// Update LastCheckAt regardless of whether anything was found.
	status.LastCheckAt = time.Now().UTC()

	if err := m.Config.Database.UpdateAccount(ctx, status.Account, status.ToAccountRecord()); err != nil {
		logger.WithError(err).Error("Failed to update database with LastCheckAt")
	}
}

// GetAccountStatus retrieves the current status of a single account.
func (m *Monitor) GetAccountStatus(ctx context.Context, account string) (models.AccountStatus, error) {
	return m.Config.Database.GetAccount(ctx, account)
}

// GetStats retrieves the current statistics from the database.
func (m *Monitor) GetStats(ctx context.Context) (models.StatsResponse, error) {
	var stats models.StatsResponse

	totalAccounts, err := m.Config.Database.GetTotalAccounts(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get total accounts: %w", err)
	}
	stats.TotalAccounts = totalAccounts

	globalLastCheckAt, err := m.Config.Database.GetGlobalLastCheckAt(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get global last check time: %w", err)
	}
	stats.GlobalLastCheckAt = globalLastCheckAt

	totalBreached, err := m.Config.Database.GetTotalBreached(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get total breached accounts: %w", err)
	}
	stats.TotalBreached = totalBreached

	breachedToday, err := m.Config.Database.GetBreachedToday(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get breaches found today: %w", err)
	}
	stats.BreachedToday = breachedToday

	return stats, nil
}
