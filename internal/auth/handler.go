package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Anonymous handles POST /auth/anonymous.
func (h *Handler) Anonymous(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.IssueAnonymous()
	if err != nil {
		slog.Error("issue anonymous token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	slog.Info("anonymous user created", "userID", result.UserID)
	writeJSON(w, http.StatusCreated, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
