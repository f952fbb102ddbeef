package store

import (
	"testing"

	"github.com/rumzy/unisettle/internal/database"
)

func setupBusinessTestDB(t *testing.T) (*BusinessStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBusinessStore(db), NewUserStore(db)
}

func testOwner(t *testing.T, us *UserStore) int64 {
	t.Helper()
	user, err := us.Create("owner@example.com", "Owner", "hash", "tok")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func TestBusinessCreateAndGet(t *testing.T) {
	bs, us := setupBusinessTestDB(t)
	ownerID := testOwner(t, us)

	biz, err := bs.Create(ownerID, BusinessFields{
		Name:     "Calgary Halal Market",
		Category: "grocery",
		City:     "Calgary",
		Phone:    "403-555-0101",
	})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}
	if biz.OwnerID != ownerID {
		t.Errorf("OwnerID = %d, want %d", biz.OwnerID, ownerID)
	}

	got, err := bs.GetByID(biz.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Calgary Halal Market" {
		t.Errorf("Name = %q, want %q", got.Name, "Calgary Halal Market")
	}
	if len(got.ImageKeys) != 0 {
		t.Errorf("ImageKeys = %v, want empty", got.ImageKeys)
	}
}

func TestBusinessListFilters(t *testing.T) {
	bs, us := setupBusinessTestDB(t)
	ownerID := testOwner(t, us)

	seed := []BusinessFields{
		{Name: "A", Category: "grocery", City: "Calgary"},
		{Name: "B", Category: "restaurant", City: "Calgary"},
		{Name: "C", Category: "grocery", City: "Edmonton"},
	}
	for _, f := range seed {
		if _, err := bs.Create(ownerID, f); err != nil {
			t.Fatalf("create %q: %v", f.Name, err)
		}
	}

	all, err := bs.List("", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("list all = %d businesses, want 3", len(all))
	}

	grocery, err := bs.List("grocery", "")
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(grocery) != 2 {
		t.Errorf("grocery = %d businesses, want 2", len(grocery))
	}

	calgaryGrocery, err := bs.List("grocery", "Calgary")
	if err != nil {
		t.Fatalf("list by category and city: %v", err)
	}
	if len(calgaryGrocery) != 1 || calgaryGrocery[0].Name != "A" {
		t.Errorf("calgary grocery = %+v, want just A", calgaryGrocery)
	}
}

func TestBusinessImageKeysRoundTrip(t *testing.T) {
	bs, us := setupBusinessTestDB(t)
	ownerID := testOwner(t, us)

	biz, err := bs.Create(ownerID, BusinessFields{Name: "A", Category: "grocery", City: "Calgary"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	keys := []string{"businesses/1/1", "businesses/1/2"}
	if err := bs.SetImageKeys(biz.ID, keys); err != nil {
		t.Fatalf("set image keys: %v", err)
	}

	got, err := bs.GetByID(biz.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.ImageKeys) != 2 || got.ImageKeys[0] != keys[0] || got.ImageKeys[1] != keys[1] {
		t.Errorf("ImageKeys = %v, want %v", got.ImageKeys, keys)
	}
}

func TestBusinessUpdateAndDelete(t *testing.T) {
	bs, us := setupBusinessTestDB(t)
	ownerID := testOwner(t, us)

	biz, err := bs.Create(ownerID, BusinessFields{Name: "A", Category: "grocery", City: "Calgary"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := bs.Update(biz.ID, BusinessFields{Name: "A+", Category: "grocery", City: "Airdrie"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "A+" || updated.City != "Airdrie" {
		t.Errorf("updated = %q in %q, want A+ in Airdrie", updated.Name, updated.City)
	}

	if err := bs.Delete(biz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := bs.GetByID(biz.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("business still present after delete: %+v", got)
	}
}
