package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/onlyil/sharingan-design/internal/auth"
	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/preset"
	"github.com/onlyil/sharingan-design/internal/store"
)

const maxBodySize = 1 << 20 // 1MB

type Handler struct {
	service     *Service
	presets     *preset.Catalog
	previewSize float64
}

func NewHandler(service *Service, presets *preset.Catalog, previewSize float64) *Handler {
	return &Handler{service: service, presets: presets, previewSize: previewSize}
}

// Register mounts the public routes on r and the per-user routes on a
// subrouter guarded by authSvc.
func (h *Handler) Register(r *mux.Router, authSvc *auth.Service) {
	r.HandleFunc("/api/presets", h.ListPresets).Methods("GET")
	r.HandleFunc("/api/presets/{name}", h.GetPreset).Methods("GET")
	r.HandleFunc("/api/render", h.Render).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authSvc.AuthMiddleware)
	api.HandleFunc("/session", h.GetSession).Methods("GET")
	api.HandleFunc("/session", h.PutSession).Methods("PUT")
	api.HandleFunc("/session/export", h.ExportSession).Methods("GET")
	api.HandleFunc("/designs", h.ListDesigns).Methods("GET")
	api.HandleFunc("/designs", h.SaveDesign).Methods("POST")
	api.HandleFunc("/designs/{index}", h.GetDesign).Methods("GET")
	api.HandleFunc("/designs/{index}", h.DeleteDesign).Methods("DELETE")
}

type presetSummary struct {
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Thumbnail string `json:"thumbnail"`
	Axes      int    `json:"axes"`
}

func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	list := h.presets.List()
	out := make([]presetSummary, len(list))
	for i, p := range list {
		out[i] = presetSummary{
			Name:      p.Name,
			Image:     p.Image,
			Thumbnail: "/assets/presets/" + p.Name + ".png",
			Axes:      p.SymmetrySettings.Axes,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.presets.Get(mux.Vars(r)["name"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Design(document.DefaultActiveSpeed))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	d, err := h.service.Session(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) PutSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	d, err := h.service.PutSession(r.Context(), userID, body)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) ExportSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	text, err := h.service.ExportSession(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

func (h *Handler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	designs, err := h.service.ListDesigns(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

type saveRequest struct {
	Name   *string         `json:"name"`
	Design json.RawMessage `json:"design"`
}

func (h *Handler) SaveDesign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req saveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if string(req.Design) == "null" {
		req.Design = nil
	}

	saved, err := h.service.SaveDesign(r.Context(), userID, req.Name, req.Design)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) GetDesign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	index, ok := indexVar(w, r)
	if !ok {
		return
	}

	saved, err := h.service.GetDesign(r.Context(), userID, index)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	index, ok := indexVar(w, r)
	if !ok {
		return
	}

	remaining, err := h.service.DeleteDesign(r.Context(), userID, index)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, remaining)
}

// Render handles POST /api/render?rotation=&size=.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	opts := engine.RenderOptions{Size: h.previewSize}
	q := r.URL.Query()
	if v := q.Get("rotation"); v != "" {
		rot, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rotation"})
			return
		}
		opts.Rotation = rot
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid size"})
			return
		}
		opts.Size = size
	}

	frame, err := h.service.Render(body, opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, engine.FrameToJSON(frame))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return nil, false
	}
	return body, true
}

func indexVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid index"})
		return 0, false
	}
	return index, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, preset.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "preset not found"})
	case errors.Is(err, store.ErrDesignIndex):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "saved design not found"})
	case errors.Is(err, store.ErrEmptyName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, document.ErrMalformedRecord):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed design"})
	case errors.Is(err, engine.ErrOverLimit):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNoUser):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
