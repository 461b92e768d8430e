package dispenser

import (
	"errors"
	"time"
)

var (
	ErrInvalidType = errors.New("Invalid type")
	ErrOutOfStock  = errors.New("No accounts available")
)

// ErrCooldownActive is returned while the caller's window for a pool is still open.
type ErrCooldownActive struct {
	Until time.Time
}

func (e ErrCooldownActive) Error() string {
	return "Cooldown active"
}
