package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/authctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/cartctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/catalogctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/couponctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/healthctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/orderctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/paymentctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/wishlistctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/middleware"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth/session"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/metrics"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/redis"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Tokens   *auth.TokenManager
	Sessions *session.Manager
	Cache    *redis.Client

	Health   *healthctrl.Controller
	Auth     *authctrl.Controller
	Catalog  *catalogctrl.Controller
	Cart     *cartctrl.Controller
	Coupons  *couponctrl.Controller
	Orders   *orderctrl.Controller
	Payments *paymentctrl.Controller
	Wishlist *wishlistctrl.Controller
}

// New assembles the HTTP surface.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger, deps.Metrics))
	r.Use(middleware.CORS(deps.Config.App))

	requireAuth := middleware.Auth(deps.Tokens, deps.Sessions, deps.Logger)
	requireAdmin := middleware.RequireRole(deps.Logger, enums.UserRoleAdmin)

	r.Get("/healthz", deps.Health.Live)
	r.Get("/readyz", deps.Health.Ready)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.Auth.Register)
			r.Post("/login", deps.Auth.Login)
			r.Post("/refresh", deps.Auth.Refresh)
			r.With(requireAuth).Post("/logout", deps.Auth.Logout)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", deps.Catalog.ListProducts)
			r.Get("/{slug}", deps.Catalog.GetProduct)
			r.With(requireAuth).Post("/{id}/ratings", deps.Catalog.Rate(enums.RatingTargetProduct))
			r.Get("/{id}/ratings", deps.Catalog.ListRatings(enums.RatingTargetProduct))
		})

		r.Route("/sale-products", func(r chi.Router) {
			r.Get("/", deps.Catalog.ListSaleProducts)
			r.Get("/{id}", deps.Catalog.GetSaleProduct)
			r.With(requireAuth).Post("/{id}/ratings", deps.Catalog.Rate(enums.RatingTargetSaleProduct))
			r.Get("/{id}/ratings", deps.Catalog.ListRatings(enums.RatingTargetSaleProduct))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", deps.Cart.Get)
			r.Post("/items", deps.Cart.AddItem)
			r.Delete("/items/{productID}", deps.Cart.RemoveItem)
			r.Delete("/", deps.Cart.Empty)
			r.Post("/coupon", deps.Cart.ApplyCoupon)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(middleware.Idempotency(deps.Cache, "order-create", deps.Logger)).
				Post("/", deps.Orders.Create)
			r.Get("/", deps.Orders.ListMine)
			r.Get("/{id}", deps.Orders.GetMine)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", deps.Wishlist.List)
			r.Post("/{productID}", deps.Wishlist.Add)
			r.Delete("/{productID}", deps.Wishlist.Remove)
		})

		// Gateway redirect callbacks. Authenticated by signature, not by
		// bearer token; the buyer's browser is the transport.
		r.Route("/payments/esewa", func(r chi.Router) {
			r.Get("/success", deps.Payments.Success)
			r.Get("/failure", deps.Payments.Failure)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)

			r.Route("/products", func(r chi.Router) {
				r.Post("/", deps.Catalog.CreateProduct)
				r.Put("/{id}", deps.Catalog.UpdateProduct)
				r.Delete("/{id}", deps.Catalog.DeleteProduct)
			})
			r.Route("/sale-products", func(r chi.Router) {
				r.Post("/", deps.Catalog.CreateSaleProduct)
				r.Put("/{id}", deps.Catalog.UpdateSaleProduct)
				r.Delete("/{id}", deps.Catalog.DeleteSaleProduct)
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Post("/", deps.Coupons.Create)
				r.Get("/", deps.Coupons.List)
				r.Put("/{id}", deps.Coupons.Update)
				r.Delete("/{id}", deps.Coupons.Delete)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", deps.Orders.AdminList)
				r.Get("/{id}", deps.Orders.AdminGet)
				r.Put("/{id}/status", deps.Orders.AdminUpdateStatus)
				r.Delete("/{id}", deps.Orders.AdminDelete)
			})
		})
	})

	return r
}
