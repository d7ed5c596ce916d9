// Package api exposes the REST surface: restaurant browsing, carts,
// cost estimates, receipts, deliveries and the conversational agent.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/cors"

	"github.com/nomnoms/nomnoms/internal/catalog"
	"github.com/nomnoms/nomnoms/internal/doordash"
	"github.com/nomnoms/nomnoms/internal/log"
	"github.com/nomnoms/nomnoms/internal/ordering"
)

const apiVersion = "1.0.0"

// OrderingService is the slice of the ordering service the handlers
// use.
type OrderingService interface {
	ListRestaurants(ctx context.Context, limit, skip int64) (*ordering.RestaurantList, error)
	Menu(ctx context.Context, restaurantID string) (*ordering.Menu, error)
	Item(ctx context.Context, itemID string) (*ordering.ItemView, error)
	BuildCart(ctx context.Context, req ordering.CartRequest) (*ordering.Cart, error)
	CostEstimate(ctx context.Context, req ordering.CartRequest) (*ordering.Estimate, error)
	CreateReceipt(ctx context.Context, req ordering.ReceiptRequest) (*catalog.Receipt, error)
	ReceiptByCode(ctx context.Context, code string) (*catalog.Receipt, error)
}

// DeliveryService creates and tracks third-party deliveries.
type DeliveryService interface {
	CreateDelivery(ctx context.Context, req *doordash.DeliveryRequest) (*doordash.Delivery, error)
	TrackDelivery(ctx context.Context, externalDeliveryID string) (*doordash.Delivery, error)
}

// ChatService runs one agent turn.
type ChatService interface {
	Chat(ctx context.Context, prompt, threadID string) (response, threadID2 string, err error)
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      log.Logger
	Ordering    OrderingService // Required
	Delivery    DeliveryService // Required
	Chat        ChatService     // Optional: nil reports a configuration error on /api/agent/chat
	CORSOrigins []string        // Allowed origins for CORS
	RateBurst   int             // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	handler http.Handler
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Ordering == nil {
		return nil, errors.New("ordering service is required")
	}
	if cfg.Delivery == nil {
		return nil, errors.New("delivery service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	rh := &restaurantHandler{ordering: cfg.Ordering, logger: logger}
	dh := &deliveryHandler{delivery: cfg.Delivery, logger: logger}
	ah := &agentHandler{chat: cfg.Chat, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/restaurants", rh.list)
	mux.HandleFunc("GET /api/restaurants/{$}", rh.list)
	// "GET /api/restaurants/{id}/menu" and "GET /api/restaurants/items/{id}"
	// conflict under ServeMux precedence rules (neither is more specific),
	// so both are registered under one pattern and dispatched here.
	mux.HandleFunc("GET /api/restaurants/{id}/{tail}", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.PathValue("id") == "items":
			r.SetPathValue("id", r.PathValue("tail"))
			rh.item(w, r)
		case r.PathValue("tail") == "menu":
			rh.menu(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("POST /api/restaurants/cart", rh.buildCart)
	mux.HandleFunc("POST /api/restaurants/cost-estimate", rh.costEstimate)
	mux.HandleFunc("POST /api/restaurants/receipts", rh.createReceipt)
	mux.HandleFunc("GET /api/restaurants/receipts/{code}", rh.receipt)

	mux.HandleFunc("POST /api/doordash/deliveries", dh.create)
	mux.HandleFunc("GET /api/doordash/deliveries/{id}", dh.track)

	mux.HandleFunc("POST /api/agent/chat", ah.handleChat)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	})

	// Middleware stack, outermost first:
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = c.Handler(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health and root probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", healthHandler(logger))
	topMux.HandleFunc("GET /{$}", rootHandler(logger))
	topMux.Handle("/", handler)

	return &Server{handler: topMux}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func healthHandler(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"}, logger)
	}
}

func rootHandler(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Welcome to the NomNoms API",
			"version": apiVersion,
			"endpoints": map[string]string{
				"list_restaurants": "GET /api/restaurants/",
				"get_menu":         "GET /api/restaurants/{restaurant_id}/menu",
				"get_item":         "GET /api/restaurants/items/{item_id}",
				"build_cart":       "POST /api/restaurants/cart",
				"compute_cost":     "POST /api/restaurants/cost-estimate",
				"create_receipt":   "POST /api/restaurants/receipts",
				"get_receipt":      "GET /api/restaurants/receipts/{code}",
				"create_delivery":  "POST /api/doordash/deliveries",
				"track_delivery":   "GET /api/doordash/deliveries/{external_delivery_id}",
				"agent_chat":       "POST /api/agent/chat",
				"health":           "GET /health",
			},
		}, logger)
	}
}

// handleError maps service errors onto HTTP status codes. Unclassified
// errors become 500 with the error text so failures are visible to the
// caller rather than swallowed.
func handleError(w http.ResponseWriter, err error, logger log.Logger) {
	var apiErr *doordash.APIError
	switch {
	case errors.Is(err, ordering.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error(), logger)
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, doordash.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), logger)
	case errors.Is(err, doordash.ErrMissingCredentials):
		writeError(w, http.StatusInternalServerError, "configuration_error", err.Error(), logger)
	case errors.As(err, &apiErr):
		writeError(w, apiErr.StatusCode, "upstream_error", err.Error(), logger)
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), logger)
	}
}
