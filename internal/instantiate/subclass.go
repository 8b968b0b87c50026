package instantiate

import "github.com/danpasecinic/loom/internal/definition"

// Wrapper builds a subtype of target that forwards every method to it.
// It reports false when no subtype is known for target's type.
type Wrapper interface {
	Subclass(target any) (any, bool)
}

// Subclassing instantiates like Direct and then replaces the raw object with
// its registered subtype, so later interception can override its methods.
type Subclassing struct {
	base    Direct
	wrapper Wrapper
}

func NewSubclassing(w Wrapper) *Subclassing {
	return &Subclassing{wrapper: w}
}

func (s *Subclassing) Instantiate(def *definition.Definition, name string, args []any) (any, error) {
	obj, err := s.base.Instantiate(def, name, args)
	if err != nil || s.wrapper == nil {
		return obj, err
	}
	if sub, ok := s.wrapper.Subclass(obj); ok {
		return sub, nil
	}
	return obj, nil
}
