package engine

import (
	"errors"
	"fmt"

	"github.com/onlyil/sharingan-design/internal/document"
)

var ErrOverLimit = errors.New("over limit")

// Limits bound the work a remote caller can ask a server to render. A zero
// field is unbounded.
type Limits struct {
	MaxSize float64
	MaxAxes int
}

func (l Limits) CheckSize(size float64) error {
	if l.MaxSize > 0 && size > l.MaxSize {
		return fmt.Errorf("%w: size %g exceeds %g", ErrOverLimit, size, l.MaxSize)
	}
	return nil
}

func (l Limits) CheckAxes(axes int) error {
	if l.MaxAxes > 0 && axes > l.MaxAxes {
		return fmt.Errorf("%w: %d axes exceeds %d", ErrOverLimit, axes, l.MaxAxes)
	}
	return nil
}

func (l Limits) CheckDesign(d document.Design) error {
	return l.CheckAxes(d.SymmetrySettings.Axes)
}

// CheckCommand rejects a command that would push the engine past l. Records
// that fail to migrate are left for Apply to reject.
func (l Limits) CheckCommand(cmd Command) error {
	switch cmd.Op {
	case OpSetSymmetry:
		return l.CheckAxes(cmd.Axes)
	case OpSetPreviewSize:
		return l.CheckSize(cmd.Size)
	case OpLoadDesign:
		d, err := document.LoadDesignData(cmd.Design)
		if err != nil {
			return nil
		}
		return l.CheckDesign(d)
	}
	return nil
}
