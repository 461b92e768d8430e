package dispenser

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"account-dispenser/internal/adminauth"
	"account-dispenser/internal/observability"
)

const maxJSONBodyBytes = 8 << 20

type Handler struct {
	service    *Service
	authorizer adminauth.Authorizer
	logger     *observability.Logger
	trustProxy bool
}

func NewHandler(service *Service, authorizer adminauth.Authorizer, logger *observability.Logger, trustProxy bool) *Handler {
	return &Handler{
		service:    service,
		authorizer: authorizer,
		logger:     logger,
		trustProxy: trustProxy,
	}
}

type resetRequest struct {
	Password  any             `json:"password"`
	FreeStock json.RawMessage `json:"freeStock"`
	PaidStock json.RawMessage `json:"paidStock"`
}

type dataRequest struct {
	Password any `json:"password"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.internalError(w, r, "status_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	poolType := r.PathValue("type")
	address := observability.ClientAddress(r, h.trustProxy)

	account, err := h.service.Dispense(r.Context(), poolType, address)
	if err != nil {
		var cooldownErr ErrCooldownActive
		switch {
		case errors.Is(err, ErrInvalidType):
			writeFailure(w, http.StatusBadRequest, ErrInvalidType.Error())
		case errors.As(err, &cooldownErr):
			retryAfter := int(time.Until(cooldownErr.Until).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeFailure(w, http.StatusOK, cooldownErr.Error())
		case errors.Is(err, ErrOutOfStock):
			writeFailure(w, http.StatusOK, ErrOutOfStock.Error())
		default:
			h.internalError(w, r, "dispense_failed", err)
		}
		return
	}

	h.logger.Info("account_dispensed", map[string]any{
		"pool":       poolType,
		"ip":         address,
		"request_id": observability.RequestID(r.Context()),
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "account": account})
}

func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	var body resetRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if !h.authorize(w, r, body.Password) {
		return
	}

	result, err := h.service.Reset(r.Context(), body.FreeStock, body.PaidStock)
	if err != nil {
		h.internalError(w, r, "reset_failed", err)
		return
	}

	fields := map[string]any{
		"free_stock": result.FreeStock,
		"paid_stock": result.PaidStock,
		"request_id": observability.RequestID(r.Context()),
	}
	if result.DroppedFree > 0 || result.DroppedPaid > 0 {
		fields["dropped_free"] = result.DroppedFree
		fields["dropped_paid"] = result.DroppedPaid
		h.logger.Warn("restock_entries_dropped", fields)
	} else {
		h.logger.Info("pools_reset", fields)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"freeStock": result.FreeStock,
		"paidStock": result.PaidStock,
	})
}

func (h *Handler) AdminData(w http.ResponseWriter, r *http.Request) {
	var body dataRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if !h.authorize(w, r, body.Password) {
		return
	}

	doc, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.internalError(w, r, "snapshot_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, password any) bool {
	secret, _ := password.(string)
	if err := h.authorizer.Authorize(r.Context(), secret); err != nil {
		if !errors.Is(err, adminauth.ErrUnauthorized) {
			h.internalError(w, r, "authorize_failed", err)
			return false
		}
		h.logger.Warn("admin_unauthorized", map[string]any{
			"path":       r.URL.Path,
			"ip":         observability.ClientAddress(r, h.trustProxy),
			"request_id": observability.RequestID(r.Context()),
		})
		writeError(w, http.StatusUnauthorized, adminauth.ErrUnauthorized.Error())
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	observability.CaptureRequestError(r, err)
	h.logger.Error(message, map[string]any{
		"error":      err.Error(),
		"path":       r.URL.Path,
		"request_id": observability.RequestID(r.Context()),
	})
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody treats an empty body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
