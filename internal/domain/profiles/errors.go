package profiles

import "errors"

// Sentinel kinds for aggregation errors.
var (
	ErrUnknownAssayGroup  = errors.New("index row references an unknown assay group")
	ErrMalformedQuartiles = errors.New("malformed quartile values")
	ErrGeneNotIndexed     = errors.New("gene has no rows in the index")
	ErrUnknownUnit        = errors.New("unknown expression unit")
	ErrNoGenes            = errors.New("no gene ids requested")
)
