package dispenser

import (
	"net/http"

	"account-dispenser/internal/adminauth"
)

func RegisterRoutes(mux *http.ServeMux, h *Handler, adminLimiter *adminauth.RateLimiter) {
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("POST /api/generate/{type}", h.Generate)

	mux.Handle("POST /api/admin/reset-all", adminLimiter.Middleware(http.HandlerFunc(h.ResetAll)))
	mux.Handle("POST /api/admin/data", adminLimiter.Middleware(http.HandlerFunc(h.AdminData)))
}
