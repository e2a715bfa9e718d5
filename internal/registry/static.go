package registry

import "context"

// StaticRegistry serves a fixed list given in the stored JSON format,
// typically from the ITEM_IDS environment variable.
type StaticRegistry struct {
	raw string
}

var _ ItemRegistry = StaticRegistry{}

func NewStatic(raw string) StaticRegistry {
	return StaticRegistry{raw: raw}
}

func (r StaticRegistry) ItemIDs(ctx context.Context) ([]string, error) {
	return decodeLogged(ctx, "static", r.raw), nil
}
