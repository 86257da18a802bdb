package grouping

import "errors"

// ErrUnsupportedExperiment is returned for experiments that are neither baseline nor differential.
var ErrUnsupportedExperiment = errors.New("experiment is neither baseline nor differential")
