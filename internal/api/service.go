// Package api serves the design library and rendering over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/export"
	"github.com/onlyil/sharingan-design/internal/preset"
	"github.com/onlyil/sharingan-design/internal/store"
)

var ErrNoUser = errors.New("no user in request")

// Service scopes the library to each user's namespace of one shared store.
type Service struct {
	kv      store.KV
	opts    document.SaveOptions
	presets *preset.Catalog
	limits  engine.Limits
	now     func() time.Time
}

func NewService(kv store.KV, presets *preset.Catalog, opts document.SaveOptions, limits engine.Limits) *Service {
	return &Service{kv: kv, opts: opts, presets: presets, limits: limits, now: time.Now}
}

// decode migrates a record sent by a client and refuses one over the limits.
func (s *Service) decode(raw []byte) (document.Design, error) {
	d, err := document.LoadDesignData(raw)
	if err != nil {
		return document.Design{}, err
	}
	if err := s.limits.CheckDesign(d); err != nil {
		return document.Design{}, err
	}
	return s.presets.Complete(d), nil
}

func (s *Service) library(userID string) (*store.Library, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	return store.NewLibrary(store.Namespace(s.kv, userID), s.opts), nil
}

// Session returns the autosaved design, or the default preset when there is
// none yet.
func (s *Service) Session(ctx context.Context, userID string) (document.Design, error) {
	lib, err := s.library(userID)
	if err != nil {
		return document.Design{}, err
	}
	d, ok := lib.LoadSession(ctx)
	if !ok {
		return s.presets.Default().Design(document.DefaultActiveSpeed), nil
	}
	return s.presets.Complete(d), nil
}

// PutSession migrates raw and stores it as the session.
func (s *Service) PutSession(ctx context.Context, userID string, raw []byte) (document.Design, error) {
	lib, err := s.library(userID)
	if err != nil {
		return document.Design{}, err
	}
	d, err := s.decode(raw)
	if err != nil {
		return document.Design{}, err
	}
	if err := lib.SaveSession(ctx, d); err != nil {
		return document.Design{}, err
	}
	slog.Debug("session saved", "user", userID, "shapes", len(d.Shapes))
	return d, nil
}

// SaveSession stores an already migrated design; the live hub uses it when
// a room closes.
func (s *Service) SaveSession(ctx context.Context, userID string, d document.Design) error {
	lib, err := s.library(userID)
	if err != nil {
		return err
	}
	return lib.SaveSession(ctx, d)
}

// LoadSession reports only a stored session, never the preset fallback.
func (s *Service) LoadSession(ctx context.Context, userID string) (document.Design, bool) {
	lib, err := s.library(userID)
	if err != nil {
		return document.Design{}, false
	}
	return lib.LoadSession(ctx)
}

func (s *Service) ExportSession(ctx context.Context, userID string) (string, error) {
	d, err := s.Session(ctx, userID)
	if err != nil {
		return "", err
	}
	return export.ClipboardJSON(d, s.now())
}

func (s *Service) ListDesigns(ctx context.Context, userID string) ([]document.SavedDesign, error) {
	lib, err := s.library(userID)
	if err != nil {
		return nil, err
	}
	return lib.List(ctx), nil
}

// SaveDesign snapshots raw, or the session when raw is empty. A nil name
// takes the timestamped default.
func (s *Service) SaveDesign(ctx context.Context, userID string, name *string, raw []byte) (document.SavedDesign, error) {
	lib, err := s.library(userID)
	if err != nil {
		return document.SavedDesign{}, err
	}

	var d document.Design
	if len(raw) == 0 {
		if d, err = s.Session(ctx, userID); err != nil {
			return document.SavedDesign{}, err
		}
	} else {
		if d, err = s.decode(raw); err != nil {
			return document.SavedDesign{}, err
		}
	}

	n := document.DefaultDesignName(s.now())
	if name != nil {
		n = *name
	}
	return lib.Save(ctx, n, d)
}

func (s *Service) DeleteDesign(ctx context.Context, userID string, index int) ([]document.SavedDesign, error) {
	lib, err := s.library(userID)
	if err != nil {
		return nil, err
	}
	return lib.Delete(ctx, index)
}

func (s *Service) GetDesign(ctx context.Context, userID string, index int) (document.SavedDesign, error) {
	lib, err := s.library(userID)
	if err != nil {
		return document.SavedDesign{}, err
	}
	return lib.Get(ctx, index)
}

// Render draws any design record at the given rotation.
func (s *Service) Render(raw []byte, opts engine.RenderOptions) (engine.Frame, error) {
	if err := s.limits.CheckSize(opts.Size); err != nil {
		return engine.Frame{}, err
	}
	d, err := s.decode(raw)
	if err != nil {
		return engine.Frame{}, fmt.Errorf("render: %w", err)
	}
	return engine.RenderFrame(d, opts), nil
}
