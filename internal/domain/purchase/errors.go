package purchase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks failures where no response came back from the
	// inventory service.
	ErrTransport = errors.New("inventory service unreachable")

	ErrInFlight         = errors.New("a request is already in flight for this session")
	ErrNoCalculation    = errors.New("nothing has been calculated")
	ErrStaleCalculation = errors.New("cart changed since the last calculation")
	ErrNotCommittable   = errors.New("calculation must be repeated before it can be committed")
	ErrStaleResponse    = errors.New("session changed while the request was in flight")
	ErrSessionClosed    = errors.New("session is closed")
	ErrRefreshFailed    = errors.New("inventory refresh failed")
)

// PartialUpdateError reports a two-call line edit where some fields were
// written before another failed. The line is left in a mixed state.
type PartialUpdateError struct {
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialUpdateError) Error() string {
	return fmt.Sprintf("update partially applied: %s updated, %s failed: %v",
		strings.Join(e.Applied, ", "), e.Failed, e.Err)
}

func (e *PartialUpdateError) Unwrap() error {
	return e.Err
}
