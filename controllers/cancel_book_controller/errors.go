package cancel_book_controller

import "errors"

// ErrNotCancellable signals that the booking's current status does not allow
// cancellation.
var ErrNotCancellable = errors.New("booking cannot be cancelled in its current status")
