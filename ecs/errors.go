package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedScene is wrapped by every error produced while decoding a
	// persisted scene.
	ErrMalformedScene = errors.New("ecs: malformed scene")

	// ErrUnknownComponent is returned when a component name has no
	// registered descriptor.
	ErrUnknownComponent = errors.New("ecs: unknown component type")
)

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedScene, fmt.Sprintf(format, args...))
}
