package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/onlyil/sharingan-design/internal/document"
)

const (
	SessionKey      = "sharingan-designer-data"
	SavedDesignsKey = "sharingan-saved-designs"
)

var (
	ErrEmptyName   = errors.New("design name must not be empty")
	ErrDesignIndex = errors.New("saved design index out of range")
)

// Library reads and writes the autosaved session and the saved-designs list.
// The list is always read, changed and written back whole.
type Library struct {
	kv   KV
	opts document.SaveOptions
	now  func() time.Time
}

func NewLibrary(kv KV, opts document.SaveOptions) *Library {
	return &Library{kv: kv, opts: opts, now: time.Now}
}

// LoadSession returns the autosaved design. Missing, unreadable or malformed
// records report false.
func (l *Library) LoadSession(ctx context.Context) (document.Design, bool) {
	raw, ok, err := l.kv.Get(ctx, SessionKey)
	if err != nil {
		slog.Warn("read session", "error", err)
		return document.Design{}, false
	}
	if !ok {
		return document.Design{}, false
	}
	d, err := document.LoadDesignData([]byte(raw))
	if err != nil {
		slog.Warn("discarding malformed session record", "error", err)
		return document.Design{}, false
	}
	return d, true
}

// SessionJSON returns the raw session record for clients that migrate it
// themselves.
func (l *Library) SessionJSON(ctx context.Context) (string, bool) {
	raw, ok, err := l.kv.Get(ctx, SessionKey)
	if err != nil {
		slog.Warn("read session", "error", err)
		return "", false
	}
	return raw, ok
}

func (l *Library) SaveSession(ctx context.Context, d document.Design) error {
	data, err := json.Marshal(document.Session{Design: d, Timestamp: l.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := l.kv.Set(ctx, SessionKey, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// List returns the saved designs, newest first. An unreadable list is empty.
func (l *Library) List(ctx context.Context) []document.SavedDesign {
	raw, ok, err := l.kv.Get(ctx, SavedDesignsKey)
	if err != nil {
		slog.Warn("read saved designs", "error", err)
		return []document.SavedDesign{}
	}
	if !ok {
		return []document.SavedDesign{}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		slog.Warn("discarding malformed saved designs", "error", err)
		return []document.SavedDesign{}
	}

	designs := make([]document.SavedDesign, 0, len(elems))
	for i, elem := range elems {
		d, err := document.LoadSavedDesign(elem)
		if err != nil {
			slog.Warn("skipping malformed saved design", "index", i, "error", err)
			continue
		}
		designs = append(designs, d)
	}
	sort.SliceStable(designs, func(i, j int) bool {
		return designs[i].Timestamp > designs[j].Timestamp
	})
	return designs
}

// Save snapshots d under name and returns the stored snapshot.
func (l *Library) Save(ctx context.Context, name string, d document.Design) (document.SavedDesign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return document.SavedDesign{}, ErrEmptyName
	}

	saved := document.NewSavedDesign(name, d, l.now().UnixMilli(), l.opts)
	designs := append([]document.SavedDesign{saved}, l.List(ctx)...)
	if err := l.write(ctx, designs); err != nil {
		return document.SavedDesign{}, fmt.Errorf("save design: %w", err)
	}
	return saved, nil
}

// Delete removes the design at index of the newest-first list and returns
// the remaining list.
func (l *Library) Delete(ctx context.Context, index int) ([]document.SavedDesign, error) {
	designs := l.List(ctx)
	if index < 0 || index >= len(designs) {
		return designs, fmt.Errorf("%w: %d", ErrDesignIndex, index)
	}

	remaining := make([]document.SavedDesign, 0, len(designs)-1)
	remaining = append(remaining, designs[:index]...)
	remaining = append(remaining, designs[index+1:]...)
	if err := l.write(ctx, remaining); err != nil {
		return designs, fmt.Errorf("delete design: %w", err)
	}
	return remaining, nil
}

// Get returns the design at index of the newest-first list.
func (l *Library) Get(ctx context.Context, index int) (document.SavedDesign, error) {
	designs := l.List(ctx)
	if index < 0 || index >= len(designs) {
		return document.SavedDesign{}, fmt.Errorf("%w: %d", ErrDesignIndex, index)
	}
	return designs[index], nil
}

func (l *Library) write(ctx context.Context, designs []document.SavedDesign) error {
	if l.opts.LegacyMirror {
		for i := range designs {
			if designs[i].BezierPaths == nil {
				designs[i].BezierPaths = document.LegacyPaths(designs[i].Shapes)
			}
		}
	}
	data, err := json.Marshal(designs)
	if err != nil {
		return err
	}
	return l.kv.Set(ctx, SavedDesignsKey, string(data))
}
