package edge

import (
	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/platform"
)

// Geometry is the derived placement of a strip.
type Geometry struct {
	Gravity   config.Edge
	Landscape bool
	Width     int
	Height    int
}

// geometryFor lays a strip of the given thickness along physical. The long
// side spans the whole display.
func geometryFor(physical config.Edge, thickness int) Geometry {
	g := Geometry{Gravity: physical, Landscape: physical.Horizontal()}
	if g.Landscape {
		g.Width = platform.MatchParent
		g.Height = thickness
	} else {
		g.Width = thickness
		g.Height = platform.MatchParent
	}
	return g
}
