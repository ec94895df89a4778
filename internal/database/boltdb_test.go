package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/breachmon/breachmon/internal/database/models"
)

func newTestBoltDB(t *testing.T) *BoltDB {
	t.Helper()
	cfg := &DatabaseConfig{
		Type: "bolt",
		Path: filepath.Join(t.TempDir(), "breachmon-test.db"),
	}
	db, err := NewBoltDB(cfg)
	if err != nil {
		t.Fatalf("NewBoltDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

func TestBoltAddAndGetAccount(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	record := models.AccountRecord{Account: "test@example.com", Comment: "ops mailbox"}
	if err := db.AddAccount(ctx, record); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}

	status, err := db.GetAccount(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if status.Account != "test@example.com" || status.Comment != "ops mailbox" {
		t.Errorf("unexpected status: %+v", status)
	}
	if status.Breached() {
		t.Error("new account reported as breached")
	}
}

func TestBoltAddAccountValidates(t *testing.T) {
	db := newTestBoltDB(t)

	if err := db.AddAccount(context.Background(), models.AccountRecord{Account: "not-an-email"}); err == nil {
		t.Error("expected validation error for account without @")
	}
	if err := db.AddAccount(context.Background(), models.AccountRecord{}); err == nil {
		t.Error("expected validation error for empty account")
	}
}

func TestBoltAddExistingAccountIsNoop(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	first := models.AccountRecord{Account: "test@example.com", Comment: "original"}
	if err := db.AddAccount(ctx, first); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	second := models.AccountRecord{Account: "test@example.com", Comment: "overwrite attempt"}
	if err := db.AddAccount(ctx, second); err != nil {
		t.Fatalf("second AddAccount failed: %v", err)
	}

	status, err := db.GetAccount(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if status.Comment != "original" {
		t.Errorf("Comment = %q, want the first write kept", status.Comment)
	}
}

func TestBoltGetMissingAccount(t *testing.T) {
	db := newTestBoltDB(t)

	_, err := db.GetAccount(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestBoltMarkAsAlerted(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	record := models.AccountRecord{Account: "test@example.com"}
	if err := db.AddAccount(ctx, record); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if err := db.MarkAsAlerted(ctx, "test@example.com", "Adobe"); err != nil {
		t.Fatalf("MarkAsAlerted failed: %v", err)
	}
	if err := db.MarkAsAlerted(ctx, "test@example.com", "LinkedIn"); err != nil {
		t.Fatalf("MarkAsAlerted failed: %v", err)
	}

	status, err := db.GetAccount(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if len(status.Breaches) != 2 {
		t.Fatalf("got %d alerted breaches, want 2", len(status.Breaches))
	}
	if _, ok := status.Breaches["Adobe"]; !ok {
		t.Error("Adobe alert missing")
	}
	if !status.Breached() {
		t.Error("alerted account not reported as breached")
	}

	breached, err := db.GetTotalBreached(ctx)
	if err != nil {
		t.Fatalf("GetTotalBreached failed: %v", err)
	}
	if breached != 1 {
		t.Errorf("GetTotalBreached = %d, want 1", breached)
	}

	today, err := db.GetBreachedToday(ctx)
	if err != nil {
		t.Fatalf("GetBreachedToday failed: %v", err)
	}
	if today != 2 {
		t.Errorf("GetBreachedToday = %d, want 2", today)
	}
}

func TestBoltDeleteAccountRemovesAlerts(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	if err := db.AddAccount(ctx, models.AccountRecord{Account: "test@example.com"}); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if err := db.MarkAsAlerted(ctx, "test@example.com", "Adobe"); err != nil {
		t.Fatalf("MarkAsAlerted failed: %v", err)
	}
	if err := db.DeleteAccount(ctx, "test@example.com"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if _, err := db.GetAccount(ctx, "test@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
	breached, err := db.GetTotalBreached(ctx)
	if err != nil {
		t.Fatalf("GetTotalBreached failed: %v", err)
	}
	if breached != 0 {
		t.Errorf("GetTotalBreached = %d after delete, want 0", breached)
	}
}

func TestBoltPagination(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	accounts := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}
	for _, account := range accounts {
		if err := db.AddAccount(ctx, models.AccountRecord{Account: account}); err != nil {
			t.Fatalf("AddAccount(%s) failed: %v", account, err)
		}
	}
	if err := db.MarkAsAlerted(ctx, "b@example.com", "Adobe"); err != nil {
		t.Fatalf("MarkAsAlerted failed: %v", err)
	}

	page, total, err := db.LoadAccountsPaginated(ctx, 1, 2, nil)
	if err != nil {
		t.Fatalf("LoadAccountsPaginated failed: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Errorf("page 1: total=%d len=%d, want 5 and 2", total, len(page))
	}

	page, total, err = db.LoadAccountsPaginated(ctx, 3, 2, nil)
	if err != nil {
		t.Fatalf("LoadAccountsPaginated failed: %v", err)
	}
	if total != 5 || len(page) != 1 {
		t.Errorf("page 3: total=%d len=%d, want 5 and 1", total, len(page))
	}

	breachedOnly := true
	page, total, err = db.LoadAccountsPaginated(ctx, 1, 10, &breachedOnly)
	if err != nil {
		t.Fatalf("LoadAccountsPaginated failed: %v", err)
	}
	if total != 1 || len(page) != 1 || page[0].Account != "b@example.com" {
		t.Errorf("breached filter: total=%d page=%+v", total, page)
	}

	notBreached := false
	_, total, err = db.LoadAccountsPaginated(ctx, 1, 10, &notBreached)
	if err != nil {
		t.Fatalf("LoadAccountsPaginated failed: %v", err)
	}
	if total != 4 {
		t.Errorf("unbreached filter: total=%d, want 4", total)
	}
}

func TestBoltUpdateAccount(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	if err := db.AddAccount(ctx, models.AccountRecord{Account: "test@example.com"}); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	updated := models.AccountRecord{Account: "test@example.com", LastCheckAt: now, PasteCount: 3}
	if err := db.UpdateAccount(ctx, "test@example.com", updated); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	status, err := db.GetAccount(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !status.LastCheckAt.Equal(now) || status.PasteCount != 3 {
		t.Errorf("update not persisted: %+v", status)
	}

	latest, err := db.GetGlobalLastCheckAt(ctx)
	if err != nil {
		t.Fatalf("GetGlobalLastCheckAt failed: %v", err)
	}
	if !latest.Equal(now) {
		t.Errorf("GetGlobalLastCheckAt = %v, want %v", latest, now)
	}

	if err := db.UpdateAccount(ctx, "missing@example.com", updated); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("UpdateAccount on missing account: err = %v, want ErrAccountNotFound", err)
	}
}
