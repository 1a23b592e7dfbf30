package lifecycle

import "errors"

var (
	ErrUnknownServiceType        = errors.New("unknown service type")
	ErrUnknownStatus             = errors.New("unknown status")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrTerminalStatus            = errors.New("status is terminal")
	ErrAwaitingPriceConfirmation = errors.New("awaiting customer price confirmation")
)
