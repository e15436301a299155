package nest

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStock is returned when the stock supply runs out before
	// every part instance is placed.
	ErrInsufficientStock = errors.New("insufficient stock to satisfy all parts")

	// ErrInvalidDimension is wrapped by every dimension validation failure.
	ErrInvalidDimension = errors.New("invalid dimensions")
)

func invalidDimension(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDimension, reason)
}
