// Package http exposes the storefront REST API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Orders    *OrdersHandler
	Catalog   *CatalogHandler
	Users     *UsersHandler
	Reviews   *ReviewsHandler
	Dashboard *DashboardHandler
}

func NewRouter(h Handlers, tokens TokenParser, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(tokens))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.Users.Register)
			r.Post("/login", h.Users.Login)
			r.Group(func(r chi.Router) {
				r.Use(RequireSession)
				r.Post("/renew", h.Users.Renew)
				r.Put("/{user_id}", h.Users.UpdateProfile)
				r.Post("/{user_id}/check-password", h.Users.CheckPassword)
				r.Put("/{user_id}/password", h.Users.UpdatePassword)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Catalog.ListProducts)
			r.Get("/search", h.Catalog.SearchProducts)
			r.Get("/{slug}", h.Catalog.GetProduct)
		})
		r.Get("/product-types", h.Catalog.ListActiveProductTypes)

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.Reviews.ListReviews)
			r.Group(func(r chi.Router) {
				r.Use(RequireSession)
				r.Post("/", h.Reviews.UpsertReview)
				r.Put("/", h.Reviews.UpdateReview)
				r.Delete("/", h.Reviews.DeleteReview)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireSession)
			r.Get("/", h.Orders.ListUserOrders)
			r.Post("/", h.Orders.CreateOrder)
			r.Post("/pay", h.Orders.PayOrder)
			r.Get("/{order_id}", h.Orders.GetOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/dashboard", h.Dashboard.Summary)

			r.Get("/orders", h.Orders.ListOrders)
			r.Put("/orders/{order_id}/state", h.Orders.ChangeState)
			r.Delete("/orders/{order_id}", h.Orders.DeleteOrder)

			r.Get("/products", h.Catalog.ListAllProducts)
			r.Post("/products", h.Catalog.CreateProduct)
			r.Put("/products/{product_id}", h.Catalog.UpdateProduct)

			r.Get("/product-types", h.Catalog.ListProductTypes)
			r.Post("/product-types", h.Catalog.CreateProductType)
			r.Put("/product-types/{product_type_id}", h.Catalog.UpdateProductType)

			r.Get("/users", h.Users.ListUsers)
			r.Put("/users/{user_id}", h.Users.UpdateUser)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
