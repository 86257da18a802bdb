package evidence

import "errors"

// ErrMalformedRanks is returned for a percentile-ranks table that cannot be parsed.
var ErrMalformedRanks = errors.New("malformed percentile ranks")
