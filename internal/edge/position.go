// Package edge positions and manages the overlay strips drawn along the
// display edges.
package edge

import (
	"fmt"

	"github.com/1broseidon/edgeseek/internal/config"
)

// Resolve maps a logical edge to the physical edge it is drawn on.
//
// Rotation r means the display content is turned r*90 degrees
// counter-clockwise. When rotationAware is set the strip follows the
// content, so the logical edge is shifted back by r positions in clockwise
// order; otherwise logical and physical edges are the same.
func Resolve(logical config.Edge, rotation int, rotationAware bool) (config.Edge, error) {
	if rotation < 0 || rotation > 3 {
		return "", fmt.Errorf("%w: %d", ErrInvalidRotation, rotation)
	}
	idx := logical.Index()
	if idx < 0 {
		return "", fmt.Errorf("unknown edge %q", logical)
	}
	if !rotationAware {
		return logical, nil
	}
	return config.Edges[(idx-rotation+4)%4], nil
}
