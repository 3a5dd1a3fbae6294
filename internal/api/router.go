package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/Vannakem2021/ecommerce-last-sub003/docs" // swagger docs
)

func NewRouter(h *Handler, mw *Middleware) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.Log, mw.Recover, mw.Cors)

	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		SendJSONErr(r.Context(), w, http.StatusMethodNotAllowed, nil, "Method not allowed")
	})

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		SendJSONErr(r.Context(), w, http.StatusNotFound, nil, "Not found")
	})

	mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.HandleFunc("/swagger/*", httpSwagger.Handler())

		r.Route("/payway", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(mw.CallbackIPWL)
				r.Post("/payment-callback", h.PaymentCallback)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.BearerAuth)
				r.Post("/check-status", h.CheckStatus)
				r.Post("/payments", h.CreatePayment)
			})
		})
	})

	return mux
}
