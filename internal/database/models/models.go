package models

import (
	"errors"
	"strings"
	"time"
)

// AccountRecord is a watched account as persisted in the database.
type AccountRecord struct {
	Account     string    `json:"account"`
	Comment     string    `json:"comment"`
	LastCheckAt time.Time `json:"last_check_at"`
	PasteCount  int       `json:"paste_count"`
}

// AccountStatus is an account record together with the breaches it was
// already alerted for (breach name -> time of the alert).
type AccountStatus struct {
	Account     string               `json:"account"`
	Comment     string               `json:"comment"`
	LastCheckAt time.Time            `json:"last_check_at"`
	PasteCount  int                  `json:"paste_count"`
	Breaches    map[string]time.Time `json:"breaches,omitempty"`
}

// Breached reports whether the account appeared in at least one breach.
func (as *AccountStatus) Breached() bool {
	return len(as.Breaches) > 0
}

// ToAccountRecord strips the alert state off an AccountStatus.
func (as *AccountStatus) ToAccountRecord() AccountRecord {
	return AccountRecord{
		Account:     as.Account,
		Comment:     as.Comment,
		LastCheckAt: as.LastCheckAt,
		PasteCount:  as.PasteCount,
	}
}

// Validate checks that the record holds a plausible email account.
func (ar *AccountRecord) Validate() error {
	account := strings.TrimSpace(ar.Account)
	if account == "" {
		return errors.New("account is required")
	}
	at := strings.Index(account, "@")
	if at <= 0 || at == len(account)-1 {
		return errors.New("account must be an email address")
	}
	return nil
}

// AccountsResponse includes pagination metadata.
type AccountsResponse struct {
	Accounts   []AccountStatus `json:"accounts"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

type AccountDetailResponse struct {
	Account AccountStatus `json:"account"`
}

// StatsResponse represents the structure of the /stats API response.
type StatsResponse struct {
	TotalAccounts     int       `json:"total_accounts"`
	GlobalLastCheckAt time.Time `json:"global_last_check_at"`
	TotalBreached     int       `json:"total_breached"`
	BreachedToday     int       `json:"breached_today"`
}
