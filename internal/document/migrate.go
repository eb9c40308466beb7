package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onlyil/sharingan-design/internal/typeid"
)

var ErrMalformedRecord = errors.New("malformed design record")

// Record is a persisted design before migration, keyed by top-level field.
type Record map[string]json.RawMessage

// ParseRecord decodes raw into a Record. Anything other than a JSON object
// is ErrMalformedRecord.
func ParseRecord(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: null record", ErrMalformedRecord)
	}
	return rec, nil
}

// LoadDesignData parses and migrates a persisted design of any known layout.
// The returned design may have no shapes when the record carries none.
func LoadDesignData(raw []byte) (Design, error) {
	rec, err := ParseRecord(raw)
	if err != nil {
		return Design{}, err
	}
	return MigrateRecord(rec), nil
}

// MigrateRecord upgrades rec to the current layout. Shapes are taken from
// shapes, else bezierPaths, else the single bezierPath. Symmetry, speed and
// pupil settings each fall back to their defaults on their own.
func MigrateRecord(rec Record) Design {
	return Design{
		Shapes:           migrateShapes(rec),
		SymmetrySettings: migrateSymmetry(rec),
		ColorSettings:    migrateColorSettings(rec),
		AnimationSpeed:   migrateSpeed(rec),
	}
}

// LoadSavedDesign migrates one element of the saved-designs list.
func LoadSavedDesign(raw []byte) (SavedDesign, error) {
	rec, err := ParseRecord(raw)
	if err != nil {
		return SavedDesign{}, err
	}
	out := SavedDesign{Design: MigrateRecord(rec)}
	if v, ok := rec["name"]; ok {
		if err := json.Unmarshal(v, &out.Name); err != nil {
			slog.Warn("saved design has malformed name", "error", err)
		}
	}
	if v, ok := rec["timestamp"]; ok {
		var ts float64
		if err := json.Unmarshal(v, &ts); err != nil {
			slog.Warn("saved design has malformed timestamp", "name", out.Name, "error", err)
		}
		out.Timestamp = int64(ts)
	}
	return out, nil
}

func present(v json.RawMessage) bool {
	return len(v) > 0 && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func migrateShapes(rec Record) []Shape {
	if v := rec["shapes"]; present(v) {
		var shapes []Shape
		err := json.Unmarshal(v, &shapes)
		if err == nil {
			for i := range shapes {
				if shapes[i].ID == "" {
					shapes[i].ID = typeid.NewShapeID()
				}
			}
			return shapes
		}
		slog.Warn("ignoring malformed shapes", "error", err)
	}

	fallback := pathFillColor(rec)

	if v := rec["bezierPaths"]; present(v) {
		var elems []json.RawMessage
		err := json.Unmarshal(v, &elems)
		if err == nil {
			shapes := make([]Shape, 0, len(elems))
			for i, elem := range elems {
				path, err := decodeLegacyPath(elem, fallback)
				if err != nil {
					slog.Warn("skipping malformed bezier path", "index", i, "error", err)
					continue
				}
				shapes = append(shapes, BezierPathToShape(path))
			}
			return shapes
		}
		slog.Warn("ignoring malformed bezierPaths", "error", err)
	}

	if v := rec["bezierPath"]; present(v) {
		var points []BezierPoint
		err := json.Unmarshal(v, &points)
		if err == nil {
			return []Shape{BezierPathToShape(BezierPath{Points: points, Color: fallback})}
		}
		slog.Warn("ignoring malformed bezierPath", "error", err)
	}
	return []Shape{}
}

// decodeLegacyPath accepts both {points, color} objects and the older bare
// point arrays, which take the record's fill color.
func decodeLegacyPath(elem json.RawMessage, fallback string) (BezierPath, error) {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var points []BezierPoint
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return BezierPath{}, err
		}
		return BezierPath{Points: points, Color: fallback}, nil
	}

	var path struct {
		Points []BezierPoint `json:"points"`
		Color  *string       `json:"color"`
	}
	if err := json.Unmarshal(trimmed, &path); err != nil {
		return BezierPath{}, err
	}
	if path.Points == nil {
		return BezierPath{}, errors.New("missing points")
	}
	color := fallback
	if path.Color != nil && *path.Color != "" {
		color = *path.Color
	}
	return BezierPath{Points: path.Points, Color: color}, nil
}

func pathFillColor(rec Record) string {
	var cs struct {
		PathFillColor string `json:"pathFillColor"`
	}
	if v := rec["colorSettings"]; present(v) {
		if err := json.Unmarshal(v, &cs); err == nil && cs.PathFillColor != "" {
			return cs.PathFillColor
		}
	}
	return DefaultShapeColor
}

func migrateSymmetry(rec Record) SymmetrySettings {
	v := rec["symmetrySettings"]
	if !present(v) {
		return DefaultSymmetry()
	}
	var s struct {
		Axes *float64 `json:"axes"`
	}
	if err := json.Unmarshal(v, &s); err != nil || s.Axes == nil || *s.Axes < 1 || *s.Axes != float64(int(*s.Axes)) {
		slog.Warn("using default symmetry settings", "raw", string(v))
		return DefaultSymmetry()
	}
	return SymmetrySettings{Axes: int(*s.Axes)}
}

func migrateSpeed(rec Record) Speed {
	v := rec["animationSpeed"]
	if !present(v) {
		return 0
	}
	var s Speed
	if err := json.Unmarshal(v, &s); err != nil {
		slog.Warn("using default animation speed", "error", err)
		return 0
	}
	return s
}

func migrateColorSettings(rec Record) ColorSettings {
	out := DefaultColorSettings()
	v := rec["colorSettings"]
	if !present(v) {
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(v, &fields); err != nil {
		slog.Warn("using default color settings", "error", err)
		return out
	}
	var color string
	if err := json.Unmarshal(fields["pupilColor"], &color); err == nil && color != "" {
		out.PupilColor = color
	}
	var size float64
	if err := json.Unmarshal(fields["pupilSize"], &size); err == nil && size > 0 && size < 1 {
		out.PupilSize = size
	}
	return out
}
