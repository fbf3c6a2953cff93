package progression

import "errors"

// ErrInvalidSnapshot is returned by Hydrate when a snapshot would break the
// record invariants (negative pools, non-positive history amounts, history
// out of seq order).
var ErrInvalidSnapshot = errors.New("invalid progression snapshot")
