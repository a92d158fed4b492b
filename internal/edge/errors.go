package edge

import (
	"errors"

	"github.com/1broseidon/edgeseek/internal/platform"
)

var (
	ErrInvalidRotation = platform.ErrInvalidRotation
	ErrAlreadyAttached = errors.New("overlay already attached")
	ErrNotAttached     = errors.New("overlay not attached")
	ErrNotBuilt        = errors.New("overlay not built")
)
