package maintenance

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"account-dispenser/internal/observability"
)

//go:generate mockgen -destination=../mocks/mock_cooldown_pruner.go -package=mocks account-dispenser/internal/maintenance CooldownPruner

// CooldownPruner removes cooldown entries whose windows have already closed.
type CooldownPruner interface {
	PruneCooldowns(ctx context.Context) (int, error)
}

type CleanupResult struct {
	PrunedCooldowns int `json:"prunedCooldowns"`
}

type CleanupHandler struct {
	pruner     CooldownPruner
	logger     *observability.Logger
	cronSecret string
}

func NewCleanupHandler(pruner CooldownPruner, logger *observability.Logger, cronSecret string) *CleanupHandler {
	return &CleanupHandler{
		pruner:     pruner,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(h.cronSecret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	pruned, err := h.pruner.PruneCooldowns(r.Context())
	if err != nil {
		observability.CaptureRequestError(r, err)
		h.logger.Error("cooldown_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("cooldown_cleanup_completed", map[string]any{
		"pruned_cooldowns": pruned,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"result": CleanupResult{PrunedCooldowns: pruned},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
