package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/preset"
)

const maxDesignSize = 1 << 20 // 1MB

type Handler struct {
	enc         *Encoder
	presets     *preset.Catalog
	defaultSize float64
	limits      engine.Limits
}

func NewHandler(ffmpegPath string, presets *preset.Catalog, defaultSize float64, limits engine.Limits) *Handler {
	return &Handler{enc: NewEncoder(ffmpegPath), presets: presets, defaultSize: defaultSize, limits: limits}
}

// Export handles POST /export/{format}. The body is any design record; old
// schemas are migrated before rendering and a record without shapes gets the
// default preset's. Query: frames, fps, size, name.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDesignSize))
	if err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}
	d, err := document.LoadDesignData(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.limits.CheckDesign(d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d = h.presets.Complete(d)

	q := r.URL.Query()
	opts := Options{Size: h.defaultSize}
	opts.Frames, _ = strconv.Atoi(q.Get("frames"))
	opts.FPS, _ = strconv.Atoi(q.Get("fps"))
	if s, err := strconv.ParseFloat(q.Get("size"), 64); err == nil && s > 0 {
		opts.Size = s
	}
	if err := h.limits.CheckSize(opts.Size); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts = opts.normalized()

	var buf bytes.Buffer
	if err := h.enc.Encode(r.Context(), &buf, format, Frames(d, opts), opts.FPS); err != nil {
		if errors.Is(err, ErrUnknownFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("export failed", "format", format, "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, sanitizeName(q.Get("name")), format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func sanitizeName(name string) string {
	if name == "" {
		return "sharingan"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
