package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rumzy/unisettle/internal/database"
	"github.com/rumzy/unisettle/internal/images"
	"github.com/rumzy/unisettle/internal/model"
	"github.com/rumzy/unisettle/internal/store"
)

type businessTestEnv struct {
	mux           *http.ServeMux
	users         *store.UserStore
	businesses    *store.BusinessStore
	reviews       *store.ReviewStore
	bookmarks     *store.BookmarkStore
	events        *store.BusinessEventStore
	subscriptions *store.SubscriptionStore
}

func setupBusinessTest(t *testing.T) *businessTestEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &businessTestEnv{
		users:         store.NewUserStore(db),
		businesses:    store.NewBusinessStore(db),
		reviews:       store.NewReviewStore(db),
		bookmarks:     store.NewBookmarkStore(db),
		events:        store.NewBusinessEventStore(db),
		subscriptions: store.NewSubscriptionStore(db),
	}

	h := NewBusinessHandler(
		env.businesses, env.reviews, env.bookmarks, env.events,
		env.subscriptions, images.New(images.Config{}), discardLogger(),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/businesses", h.Create)
	mux.HandleFunc("PUT /api/businesses/{id}", h.Update)
	mux.HandleFunc("DELETE /api/businesses/{id}", h.Delete)
	mux.HandleFunc("GET /api/businesses", h.List)
	mux.HandleFunc("GET /api/businesses/{id}", h.Get)
	env.mux = mux
	return env
}

func (env *businessTestEnv) newUser(t *testing.T, email string) int64 {
	t.Helper()
	user, err := env.users.Create(email, "Test", "hash", "tok")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func (env *businessTestEnv) do(t *testing.T, userID int64, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func (env *businessTestEnv) entitle(t *testing.T, userID int64) {
	t.Helper()
	_, err := env.subscriptions.Upsert("cus_test", store.SubscriptionFields{
		Status: model.StatusActive,
		UserID: itoa(userID),
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestCreateBusinessRequiresEntitlement(t *testing.T) {
	env := setupBusinessTest(t)
	userID := env.newUser(t, "owner@example.com")

	rec := env.do(t, userID, http.MethodPost, "/api/businesses",
		`{"name":"Halal Market","category":"grocery","city":"Calgary"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
	}

	list, _ := env.businesses.List("", "")
	if len(list) != 0 {
		t.Errorf("business created despite missing entitlement: %+v", list)
	}
}

func TestCreateBusinessWhenEntitled(t *testing.T) {
	env := setupBusinessTest(t)
	userID := env.newUser(t, "owner@example.com")
	env.entitle(t, userID)

	rec := env.do(t, userID, http.MethodPost, "/api/businesses",
		`{"name":"Halal Market","category":"grocery","city":"Calgary","phone":"403-555-0101"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["name"] != "Halal Market" {
		t.Errorf("name = %v, want Halal Market", body["name"])
	}
	if body["owner_id"] != float64(userID) {
		t.Errorf("owner_id = %v, want %d", body["owner_id"], userID)
	}
}

func TestUpdateBusinessOwnerOnly(t *testing.T) {
	env := setupBusinessTest(t)
	ownerID := env.newUser(t, "owner@example.com")
	otherID := env.newUser(t, "other@example.com")

	biz, err := env.businesses.Create(ownerID, store.BusinessFields{Name: "A", Category: "grocery", City: "Calgary"})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}

	rec := env.do(t, otherID, http.MethodPut, "/api/businesses/"+itoa(biz.ID),
		`{"name":"Hijacked","category":"grocery","city":"Calgary"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	got, _ := env.businesses.GetByID(biz.ID)
	if got.Name != "A" {
		t.Errorf("name changed to %q by a non-owner", got.Name)
	}
}

func TestDeleteBusinessCascades(t *testing.T) {
	env := setupBusinessTest(t)
	ownerID := env.newUser(t, "owner@example.com")
	reviewerID := env.newUser(t, "reviewer@example.com")

	biz, err := env.businesses.Create(ownerID, store.BusinessFields{Name: "A", Category: "grocery", City: "Calgary"})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}
	if _, err := env.reviews.Create(biz.ID, reviewerID, 5, "great"); err != nil {
		t.Fatalf("create review: %v", err)
	}
	if _, err := env.bookmarks.Create(reviewerID, biz.ID); err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	if err := env.events.Create(biz.ID, nil, "view", "2026-08"); err != nil {
		t.Fatalf("create event: %v", err)
	}

	rec := env.do(t, ownerID, http.MethodDelete, "/api/businesses/"+itoa(biz.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["partial"] != false {
		t.Errorf("partial = %v, want false", body["partial"])
	}

	if got, _ := env.businesses.GetByID(biz.ID); got != nil {
		t.Error("business still present after delete")
	}
	if reviews, _ := env.reviews.ListByBusiness(biz.ID); len(reviews) != 0 {
		t.Errorf("reviews not cascaded: %+v", reviews)
	}
	if bookmarks, _ := env.bookmarks.ListByBusiness(biz.ID); len(bookmarks) != 0 {
		t.Errorf("bookmarks not cascaded: %+v", bookmarks)
	}
	if events, _ := env.events.ListByBusiness(biz.ID); len(events) != 0 {
		t.Errorf("events not cascaded: %+v", events)
	}
}

func TestGetUnknownBusiness(t *testing.T) {
	env := setupBusinessTest(t)

	rec := env.do(t, 0, http.MethodGet, "/api/businesses/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
