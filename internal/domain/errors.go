package domain

import "fmt"

var (
	ErrUpstreamUnavailable  = errString("upstream unavailable")
	ErrAlreadyMonitored     = errString("identity already monitored")
	ErrNotMonitored         = errString("identity not monitored")
	ErrConfigurationMissing = errString("configuration missing")
	ErrInvalidInput         = errString("invalid input")
)

type errString string

func (e errString) Error() string { return string(e) }

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidInput, msg) }
