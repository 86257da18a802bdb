package model

import "errors"

var (
	ErrQuartileArity         = errors.New("quartiles need exactly five values")
	ErrUnknownExperimentType = errors.New("unknown experiment type")
)
