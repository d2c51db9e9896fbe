package observability

import (
	"context"
	"errors"
	"net"
)

// IsTimeout reports whether err was caused by a deadline rather than a
// failure of the remote side.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
