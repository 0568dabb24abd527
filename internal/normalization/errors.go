package normalization

import "errors"

// ErrMalformedRecord is returned when a raw record cannot be mapped to a
// canonical event: it is not a JSON object, or its match id, round or actor
// id cannot be resolved under either naming convention.
var ErrMalformedRecord = errors.New("malformed record")
