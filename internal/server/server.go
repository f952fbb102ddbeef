package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rumzy/unisettle/internal/email"
	"github.com/rumzy/unisettle/internal/handler"
	"github.com/rumzy/unisettle/internal/images"
	"github.com/rumzy/unisettle/internal/middleware"
	"github.com/rumzy/unisettle/internal/store"
	unistripe "github.com/rumzy/unisettle/internal/stripe"
)

type Config struct {
	Stripe      unistripe.Config
	Images      images.Config
	BaseURL     string
	EmailClient *email.Client
}

type Server struct {
	db            *sql.DB
	authH         *handler.AuthHandler
	paymentsH     *handler.PaymentsHandler
	webhookH      *handler.WebhookHandler
	subscriptionH *handler.SubscriptionHandler
	businessH     *handler.BusinessHandler
	reviewH       *handler.ReviewHandler
	bookmarkH     *handler.BookmarkHandler
	eventH        *handler.EventHandler
	checklistH    *handler.ChecklistHandler
	feedbackH     *handler.FeedbackHandler
	sessionStore  *store.SessionStore
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	businessStore := store.NewBusinessStore(db)
	reviewStore := store.NewReviewStore(db)
	bookmarkStore := store.NewBookmarkStore(db)
	eventStore := store.NewBusinessEventStore(db)
	checklistStore := store.NewChecklistStore(db)
	feedbackStore := store.NewFeedbackStore(db)

	gateway := unistripe.NewClient(cfg.Stripe)
	imageStore := images.New(cfg.Images)

	return &Server{
		db:            db,
		authH:         handler.NewAuthHandler(userStore, sessionStore, cfg.EmailClient, logger.With("component", "auth")),
		paymentsH:     handler.NewPaymentsHandler(gateway, subscriptionStore, logger.With("component", "payments")),
		webhookH:      handler.NewWebhookHandler(gateway, subscriptionStore, logger.With("component", "webhook")),
		subscriptionH: handler.NewSubscriptionHandler(subscriptionStore, logger.With("component", "subscription")),
		businessH:     handler.NewBusinessHandler(businessStore, reviewStore, bookmarkStore, eventStore, subscriptionStore, imageStore, logger.With("component", "business")),
		reviewH:       handler.NewReviewHandler(reviewStore, businessStore, logger.With("component", "review")),
		bookmarkH:     handler.NewBookmarkHandler(bookmarkStore, businessStore, logger.With("component", "bookmark")),
		eventH:        handler.NewEventHandler(eventStore, businessStore, logger.With("component", "event")),
		checklistH:    handler.NewChecklistHandler(checklistStore, logger.With("component", "checklist")),
		feedbackH:     handler.NewFeedbackHandler(feedbackStore, logger.With("component", "feedback")),
		sessionStore:  sessionStore,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(s.sessionStore)
	optionalAuth := middleware.OptionalAuth(s.sessionStore)

	mux.HandleFunc("GET /health", s.healthHandler)

	// Auth (public, rate limited where the endpoint can be abused)
	mux.HandleFunc("POST /api/auth/signup", s.rateLimited(s.authH.Signup))
	mux.HandleFunc("POST /api/auth/login", s.rateLimited(s.authH.Login))
	mux.HandleFunc("GET /api/auth/verify", s.authH.Verify)
	mux.HandleFunc("POST /api/auth/forgot-password", s.rateLimited(s.authH.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", s.rateLimited(s.authH.ResetPassword))
	mux.Handle("POST /api/auth/logout", requireAuth(http.HandlerFunc(s.authH.Logout)))
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(s.authH.Me)))

	// Payments. The webhook is gateway-to-server and authenticates via
	// its signature, so it is mounted ahead of the session-guarded
	// lifecycle endpoints.
	mux.HandleFunc("POST /api/payments/webhook", s.webhookH.HandleWebhook)
	mux.Handle("POST /api/payments/{endpoint}", requireAuth(http.HandlerFunc(s.paymentsH.Dispatch)))
	mux.Handle("GET /api/subscription", requireAuth(http.HandlerFunc(s.subscriptionH.Get)))

	// Business directory
	mux.HandleFunc("GET /api/businesses", s.businessH.List)
	mux.HandleFunc("GET /api/businesses/{id}", s.businessH.Get)
	mux.Handle("GET /api/businesses/mine", requireAuth(http.HandlerFunc(s.businessH.ListMine)))
	mux.Handle("POST /api/businesses", requireAuth(http.HandlerFunc(s.businessH.Create)))
	mux.Handle("PUT /api/businesses/{id}", requireAuth(http.HandlerFunc(s.businessH.Update)))
	mux.Handle("DELETE /api/businesses/{id}", requireAuth(http.HandlerFunc(s.businessH.Delete)))
	mux.Handle("POST /api/businesses/{id}/images", requireAuth(http.HandlerFunc(s.businessH.UploadImage)))
	mux.Handle("GET /api/businesses/{id}/stats", requireAuth(http.HandlerFunc(s.businessH.Stats)))

	// Reviews
	mux.HandleFunc("GET /api/businesses/{id}/reviews", s.reviewH.ListByBusiness)
	mux.Handle("POST /api/businesses/{id}/reviews", requireAuth(http.HandlerFunc(s.reviewH.Create)))
	mux.Handle("DELETE /api/reviews/{id}", requireAuth(http.HandlerFunc(s.reviewH.Delete)))

	// Bookmarks
	mux.Handle("POST /api/bookmarks", requireAuth(http.HandlerFunc(s.bookmarkH.Create)))
	mux.Handle("GET /api/bookmarks", requireAuth(http.HandlerFunc(s.bookmarkH.ListMine)))
	mux.Handle("DELETE /api/bookmarks/{id}", requireAuth(http.HandlerFunc(s.bookmarkH.Delete)))

	// Interaction events and feedback accept anonymous traffic
	mux.Handle("POST /api/businesses/{id}/events", optionalAuth(http.HandlerFunc(s.eventH.Log)))
	mux.Handle("POST /api/feedback", optionalAuth(http.HandlerFunc(s.feedbackH.Create)))

	// Settlement checklist
	mux.Handle("GET /api/checklist", requireAuth(http.HandlerFunc(s.checklistH.List)))
	mux.Handle("POST /api/checklist/{id}/toggle", requireAuth(http.HandlerFunc(s.checklistH.Toggle)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
