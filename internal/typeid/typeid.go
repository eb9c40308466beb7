package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixShape = "shape"
	PrefixRoom  = "room"
	PrefixUser  = "user"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewShapeID() string { return New(PrefixShape) }
func NewRoomID() string  { return New(PrefixRoom) }
func NewUserID() string  { return New(PrefixUser) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
