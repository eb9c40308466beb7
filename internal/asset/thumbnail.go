// Package asset renders preset thumbnails and caches them on disk.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/preset"
	"github.com/onlyil/sharingan-design/internal/raster"
)

const DefaultThumbnailSize = 200

// Handler serves preset thumbnails. Each image is rendered once per catalog
// version and kept in dir.
type Handler struct {
	dir     string
	presets *preset.Catalog
	size    float64

	mu sync.Mutex // serializes renders so one file is never written twice at once
}

// NewHandler creates a thumbnail handler that stores files in dir.
func NewHandler(dir string, presets *preset.Catalog) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, presets: presets, size: DefaultThumbnailSize}
}

// Thumbnail handles GET /assets/presets/{name}.png.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	path, err := h.Path(name)
	if err != nil {
		if errors.Is(err, preset.ErrNotFound) {
			http.Error(w, "preset not found", http.StatusNotFound)
			return
		}
		slog.Error("render thumbnail", "preset", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// The file name carries the catalog version, so a cached copy never goes stale.
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

// Path returns the cached thumbnail file for a preset, rendering it first if
// needed.
func (h *Handler) Path(name string) (string, error) {
	p, err := h.presets.Get(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(h.dir, fileName(p.Name, h.presets.Version()))

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	frame := engine.RenderFrame(p.Design(0), engine.RenderOptions{Size: h.size})
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, frame); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	slog.Debug("thumbnail rendered", "preset", p.Name, "path", path)
	return path, nil
}

// fileName keeps preset names filesystem safe.
func fileName(name string, version uint64) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
	return safe + "-v" + strconv.FormatUint(version, 10) + ".png"
}
