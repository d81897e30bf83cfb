package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/services"
)

// RouterConfig holds everything the HTTP surface is built from.
// Limiter and DB are optional.
type RouterConfig struct {
	Items       *services.ItemService
	Bids        *services.BidService
	Orders      *services.OrderService
	Auth        *services.AuthService
	Users       *services.UserService
	Categories  *services.CategoryService
	Watches     *services.WatchService
	Stats       *services.StatsService
	Limiter     RateLimiter
	DB          Pinger
	Info        HealthResponse
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter wires routes and middleware
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", Health(cfg.Info, cfg.DB))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(RateLimitMiddleware(cfg.Limiter))
		}
		authenticated := AuthMiddleware(cfg.Auth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", Register(cfg.Auth))
			r.Post("/login", Login(cfg.Auth))
			r.Post("/refresh", RefreshToken(cfg.Auth))
			r.With(authenticated).Get("/me", GetMe())
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", ListItems(cfg.Items))
			r.With(authenticated).Post("/", CreateItem(cfg.Items))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", GetItem(cfg.Items))
				r.Get("/winner", GetWinner(cfg.Orders))
				r.Get("/bids", ListBids(cfg.Bids))
				r.Get("/bids/highest", GetHighestBid(cfg.Bids))

				r.Group(func(r chi.Router) {
					r.Use(authenticated)
					r.Patch("/", UpdateItem(cfg.Items))
					r.Delete("/", DeleteItem(cfg.Items))
					r.Post("/publish", PublishItem(cfg.Items))
					r.Post("/close", CloseItem(cfg.Items))
					r.Post("/bids", PlaceBid(cfg.Bids))
					r.Post("/orders", CreateOrder(cfg.Orders))
					r.Post("/watch", WatchItem(cfg.Watches))
					r.Delete("/watch", UnwatchItem(cfg.Watches))
				})
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", ListCategories(cfg.Categories))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Use(RequireAdmin)
				r.Post("/", CreateCategory(cfg.Categories))
				r.Patch("/{id}", RenameCategory(cfg.Categories))
				r.Delete("/{id}", DeleteCategory(cfg.Categories))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/me", GetMe())
			r.Patch("/me", UpdateMe(cfg.Users))
			r.Patch("/me/password", ChangePassword(cfg.Users))
			r.Get("/me/bids", ListMyBids(cfg.Bids))
			r.Get("/me/watches", ListMyWatches(cfg.Watches))
			r.Get("/{id}", GetUser(cfg.Users))
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/items/top-bid-count", TopBidCounts(cfg.Stats))
			r.With(authenticated, RequireAdmin).Get("/sales/daily", DailySales(cfg.Stats))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", ListMyOrders(cfg.Orders))
			r.Get("/{id}", GetMyOrder(cfg.Orders))
			r.Post("/{id}/cancel", CancelOrder(cfg.Orders))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated)
			r.Use(RequireAdmin)
			r.Patch("/items/{id}/force-close", ForceCloseItem(cfg.Items))
			r.Patch("/orders/{id}/status", UpdateOrderStatus(cfg.Orders))
			r.Get("/users", ListUsers(cfg.Users))
			r.Patch("/users/{id}/deactivate", DeactivateUser(cfg.Auth))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, apperror.NotFound("no route for "+r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, apperror.New(http.StatusMethodNotAllowed, apperror.CodeBadRequest, "method not allowed"))
	})

	return r
}
