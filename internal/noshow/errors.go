package noshow

import "errors"

var (
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrPatientNotFound        = errors.New("patient not found")
	ErrInvalidAppointmentType = errors.New("invalid appointment type")
	ErrInvalidOutcome         = errors.New("invalid appointment outcome")
)
