package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/aims-commerce/internal/cart"
	"github.com/frahmantamala/aims-commerce/internal/customer"
	"github.com/frahmantamala/aims-commerce/internal/order"
	"github.com/frahmantamala/aims-commerce/internal/payment"
	"github.com/frahmantamala/aims-commerce/internal/product"
	"github.com/frahmantamala/aims-commerce/internal/transport/middleware"
	"github.com/frahmantamala/aims-commerce/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, customerHandler *customer.Handler, productHandler *product.Handler, cartHandler *cart.Handler, orderHandler *order.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway callbacks are public; VNPay addresses them directly.
		if webhookHandler != nil {
			r.Get("/payment/vnpay/return", webhookHandler.HandleReturn)
			r.Get("/payment/vnpay/ipn", webhookHandler.HandleIPN)
		}

		// Auth routes
		if customerHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/register", customerHandler.Register)
				sr.Post("/login", customerHandler.Login)
				sr.Post("/refresh", customerHandler.RefreshToken)
				sr.Post("/logout", customerHandler.Logout)
			})
		}

		// Catalog browsing needs no account.
		if productHandler != nil {
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{productID}", productHandler.GetProduct)
		}

		if customerHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(customerHandler.AuthMiddleware)

				// Current customer
				pr.Get("/customers/me", customerHandler.Me)

				// Cart routes
				if cartHandler != nil {
					pr.Route("/cart", func(cr chi.Router) {
						cr.Get("/", cartHandler.GetCart)
						cr.Delete("/", cartHandler.ClearCart)
						cr.Post("/items", cartHandler.AddItem)
						cr.Patch("/items/{productID}", cartHandler.UpdateItem)
						cr.Delete("/items/{productID}", cartHandler.RemoveItem)
					})
				}

				// Order routes
				if orderHandler != nil {
					pr.Route("/orders", func(or chi.Router) {
						or.Post("/", orderHandler.PlaceOrder)
						or.Get("/", orderHandler.ListOrders)
						or.Get("/{orderID}", orderHandler.GetOrder)
						or.Post("/{orderID}/cancel", orderHandler.CancelOrder)
						or.Post("/{orderID}/payment", orderHandler.PayOrder)
					})
				}

				// Payment status for an order the caller owns
				if paymentHandler != nil {
					pr.Get("/payment/{orderID}/status", paymentHandler.GetPaymentStatus)
				}
			})
		}
	})
}
