// internal/scheduler/scheduler_test.go
package scheduler

import (
	"errors"
	"testing"

	"github.com/pistareserva/courtbook/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New()
	if err != nil {
		t.Fatalf("create scheduler: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Stop()
	})
	return svc
}

func TestAddJobValidation(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.AddJob("", "0 18 * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := svc.AddJob("reminders", "", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("expected ErrEmptyCronExpr, got %v", err)
	}
	if _, err := svc.AddJob("reminders", "not a cron", func() {}); err == nil {
		t.Fatal("expected invalid cron expression to be rejected")
	}
	if _, err := svc.AddJob("reminders", "0 18 * * *", func() {}); err != nil {
		t.Fatalf("valid job: %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	svc.Start()

	if err := svc.Stop(); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestRegisterReminderJob(t *testing.T) {
	svc := newTestService(t)
	database := testutil.NewTestDB(t)

	if err := RegisterReminderJob(nil, database, nil, "0 18 * * *"); err == nil {
		t.Fatal("expected nil scheduler to be rejected")
	}
	if err := RegisterReminderJob(svc, nil, nil, "0 18 * * *"); err == nil {
		t.Fatal("expected nil database to be rejected")
	}
	if err := RegisterReminderJob(svc, database, nil, "0 18 * * *"); err != nil {
		t.Fatalf("register reminder job: %v", err)
	}
}
