package store

import (
	"testing"
	"time"

	"github.com/rumzy/unisettle/internal/database"
	"github.com/rumzy/unisettle/internal/model"
)

func setupSubscriptionTestDB(t *testing.T) *SubscriptionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionStore(db)
}

func TestUpsertCreatesRecord(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	trialEnd := time.Now().UTC().Add(30 * 24 * time.Hour)
	sub, err := s.Upsert("cus_1", SubscriptionFields{
		SubscriptionID: "sub_1",
		Status:         model.StatusTrialing,
		FreeTrialEnd:   &trialEnd,
		Name:           "Amina",
		Email:          "amina@example.com",
		UserID:         "42",
		GatewayEventAt: 100,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub.CustomerID != "cus_1" {
		t.Errorf("CustomerID = %q, want %q", sub.CustomerID, "cus_1")
	}
	if sub.Status != model.StatusTrialing {
		t.Errorf("Status = %q, want %q", sub.Status, model.StatusTrialing)
	}
	if sub.FreeTrialEnd == nil {
		t.Error("FreeTrialEnd is nil, want set")
	}
	if sub.GatewayEventAt != 100 {
		t.Errorf("GatewayEventAt = %d, want 100", sub.GatewayEventAt)
	}
}

func TestUpsertMergesIntoSingleRow(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	first, err := s.Upsert("cus_1", SubscriptionFields{
		SubscriptionID: "sub_1",
		Status:         model.StatusTrialing,
		UserID:         "42",
		GatewayEventAt: 100,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := s.Upsert("cus_1", SubscriptionFields{
		SubscriptionID:        "sub_1",
		Status:                model.StatusActive,
		CancellationRequested: true,
		UserID:                "42",
		GatewayEventAt:        200,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a second row: id %d then %d", first.ID, second.ID)
	}
	if second.Status != model.StatusActive {
		t.Errorf("Status = %q, want %q", second.Status, model.StatusActive)
	}
	if !second.CancellationRequested {
		t.Error("CancellationRequested = false, want true")
	}
	if second.GatewayEventAt != 200 {
		t.Errorf("GatewayEventAt = %d, want 200", second.GatewayEventAt)
	}
}

func TestFindByCustomerMissing(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	sub, err := s.FindByCustomer("cus_nope")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil for unknown customer, got %+v", sub)
	}
}

func TestFindByUser(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	if _, err := s.Upsert("cus_1", SubscriptionFields{Status: model.StatusActive, UserID: "42", GatewayEventAt: 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sub, err := s.FindByUser("42")
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if sub == nil || sub.CustomerID != "cus_1" {
		t.Fatalf("find by user = %+v, want customer cus_1", sub)
	}

	none, err := s.FindByUser("99")
	if err != nil {
		t.Fatalf("find by unknown user: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for unknown user, got %+v", none)
	}
}

func TestUpdateStatusRecordsEventTime(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	sub, err := s.Upsert("cus_1", SubscriptionFields{Status: model.StatusTrialing, GatewayEventAt: 100})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.UpdateStatus(sub.ID, model.StatusPastDue, 250); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := s.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusPastDue {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPastDue)
	}
	if got.GatewayEventAt != 250 {
		t.Errorf("GatewayEventAt = %d, want 250", got.GatewayEventAt)
	}
}

func TestSetCancellationRequested(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	sub, err := s.Upsert("cus_1", SubscriptionFields{Status: model.StatusActive})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.SetCancellationRequested(sub.ID, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := s.GetByID(sub.ID)
	if !got.CancellationRequested {
		t.Error("CancellationRequested = false, want true")
	}

	if err := s.SetCancellationRequested(sub.ID, false); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.GetByID(sub.ID)
	if got.CancellationRequested {
		t.Error("CancellationRequested = true, want false")
	}
}

func TestDeleteSubscription(t *testing.T) {
	s := setupSubscriptionTestDB(t)

	sub, err := s.Upsert("cus_1", SubscriptionFields{Status: model.StatusActive, UserID: "42"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Delete(sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.FindByCustomer("cus_1")
	if err != nil {
		t.Fatalf("find after delete: %v", err)
	}
	if got != nil {
		t.Errorf("record still present after delete: %+v", got)
	}
	byUser, _ := s.FindByUser("42")
	if byUser != nil {
		t.Errorf("find by user still returns record after delete: %+v", byUser)
	}
}
