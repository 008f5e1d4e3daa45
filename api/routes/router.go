package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/souq-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/souq-backend/api/controllers/auth"
	cartcontrollers "github.com/angelmondragon/souq-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/souq-backend/api/controllers/orders"
	tempcontrollers "github.com/angelmondragon/souq-backend/api/controllers/temporders"
	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/internal/auth"
	"github.com/angelmondragon/souq-backend/internal/cart"
	"github.com/angelmondragon/souq-backend/internal/catalog"
	"github.com/angelmondragon/souq-backend/internal/checkout"
	"github.com/angelmondragon/souq-backend/internal/coupons"
	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/internal/locations"
	"github.com/angelmondragon/souq-backend/internal/offers"
	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/reconciliation"
	"github.com/angelmondragon/souq-backend/internal/temporders"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/redis"
)

// Deps collects everything the HTTP surface needs. A nil Redis disables
// idempotency replay and login rate limiting.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	Auth           auth.Service
	Register       auth.RegisterService
	Customers      customers.Service
	Catalog        catalog.Service
	Locations      locations.Service
	Coupons        coupons.Service
	Offers         offers.Service
	Cart           cart.Service
	Orders         orders.Service
	Checkout       checkout.Service
	Reconciliation reconciliation.Service
	TempOrders     temporders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	responses.SetDevMode(cfg.App.IsDev())

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL),
	)

	idempotent := passthrough
	loginLimit := passthrough
	registerLimit := passthrough
	ready := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		idempotent = middleware.Idempotency(deps.Redis, logg)
		limits := cfg.AuthRateLimit
		loginLimit = middleware.RateLimit(middleware.RateLimitPolicy{
			Name:       "login",
			Window:     limits.LoginWindow,
			PerIP:      limits.LoginIPLimit,
			PerAccount: limits.LoginIdentifierLimit,
		}, deps.Redis, logg)
		registerLimit = middleware.RateLimit(middleware.RateLimitPolicy{
			Name:   "register",
			Window: limits.LoginWindow,
			PerIP:  limits.LoginIPLimit,
		}, deps.Redis, logg)
		ready["redis"] = deps.Redis
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, ready, logg))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Gateway redirects land here and bounce the shopper to the storefront.
	r.Get("/payment-success", controllers.PaymentSuccess(deps.Reconciliation))
	r.Get("/payment-error", controllers.PaymentError(deps.Reconciliation))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Catalog, logg))
		r.Get("/product-types", controllers.ListProductTypes(deps.Catalog, logg))
		r.Get("/product-types/{parentId}/children", controllers.ListChildProductTypes(deps.Catalog, logg))
		r.Get("/states", controllers.ListStates(deps.Locations, logg))
		r.Get("/states/{stateId}/governorates", controllers.ListGovernorates(deps.Locations, logg))
		r.Get("/governorates/{governorateId}/cities", controllers.ListCities(deps.Locations, logg))
		r.Get("/offers", controllers.ListOffers(deps.Offers, logg))
		r.Get("/order-statuses", controllers.OrderStatuses())
		r.Get("/temp-orders/{id}", tempcontrollers.Get(deps.TempOrders, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(registerLimit, idempotent).Post("/register", authcontrollers.Register(deps.Register, logg))
			r.With(loginLimit).Post("/login", authcontrollers.Login(deps.Auth, logg))
		})
		r.With(loginLimit).Post("/staff/login", authcontrollers.StaffLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleCustomer))

			self := cartcontrollers.FromActor()
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(deps.Cart, self, logg))
				r.Post("/", cartcontrollers.Add(deps.Cart, self, logg))
				r.Delete("/", cartcontrollers.Clear(deps.Cart, self, logg))
				r.Post("/offers", cartcontrollers.AddOffer(deps.Cart, self, logg))
				r.Patch("/{itemId}", cartcontrollers.ChangeQuantity(deps.Cart, self, logg))
				r.Delete("/{itemId}", cartcontrollers.Remove(deps.Cart, self, logg))
			})

			r.Post("/checkout", ordercontrollers.Preview(deps.Checkout, logg))
			r.With(idempotent).Post("/order", ordercontrollers.Place(deps.Checkout, logg))
			r.Get("/orders", ordercontrollers.List(deps.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.With(idempotent).Post("/temp-orders/{id}/convert", tempcontrollers.Convert(deps.TempOrders, logg))
		})

		r.Route("/operator", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin, enums.RoleOperator))

			r.Get("/orders", ordercontrollers.List(deps.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/order/{orderId}", ordercontrollers.UpdateStatus(deps.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

			r.Post("/products", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Put("/products/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			r.Delete("/products/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
			r.Post("/product-types", controllers.AdminCreateProductType(deps.Catalog, logg))

			r.Post("/states", controllers.AdminCreateState(deps.Locations, logg))
			r.Put("/states/{stateId}/costs", controllers.AdminUpdateStateCosts(deps.Locations, logg))
			r.Post("/states/{stateId}/governorates", controllers.AdminCreateGovernorate(deps.Locations, logg))
			r.Post("/governorates/{governorateId}/cities", controllers.AdminCreateCity(deps.Locations, logg))

			r.Get("/coupons", controllers.AdminListCoupons(deps.Coupons, logg))
			r.Post("/coupons", controllers.AdminCreateCoupon(deps.Coupons, logg))
			r.Delete("/coupons/{couponId}", controllers.AdminDeleteCoupon(deps.Coupons, logg))

			r.Get("/offers", controllers.AdminListOffers(deps.Offers, logg))
			r.Post("/offers", controllers.AdminCreateOffer(deps.Offers, logg))
			r.Delete("/offers/{offerId}", controllers.AdminDeleteOffer(deps.Offers, logg))

			r.Post("/staff", authcontrollers.CreateStaff(deps.Register, logg))

			r.Get("/customers", controllers.AdminListCustomers(deps.Customers, logg))
			r.Get("/customers/find", controllers.AdminFindCustomer(deps.Customers, logg))

			onBehalf := cartcontrollers.FromPath(deps.Customers)
			r.Route("/customers/{customerId}/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(deps.Cart, onBehalf, logg))
				r.Post("/", cartcontrollers.Add(deps.Cart, onBehalf, logg))
				r.Delete("/", cartcontrollers.Clear(deps.Cart, onBehalf, logg))
				r.Post("/offers", cartcontrollers.AddOffer(deps.Cart, onBehalf, logg))
				r.Patch("/{itemId}", cartcontrollers.ChangeQuantity(deps.Cart, onBehalf, logg))
				r.Delete("/{itemId}", cartcontrollers.Remove(deps.Cart, onBehalf, logg))
			})

			r.Get("/orders", ordercontrollers.List(deps.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/order/{orderId}", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.With(idempotent).Post("/orders", ordercontrollers.AdminPlace(deps.Checkout, deps.Customers, logg))

			r.Get("/temp-orders", tempcontrollers.List(deps.TempOrders, logg))
			r.With(idempotent).Post("/temp-orders", tempcontrollers.Create(deps.TempOrders, logg))
			r.Get("/temp-orders/{id}", tempcontrollers.AdminGet(deps.TempOrders, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
