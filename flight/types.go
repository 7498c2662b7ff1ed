// Package flight tracks scheduled departures and their status verdicts.
package flight

import (
	"errors"
	"fmt"

	"github.com/surety-network/surety/common"
)

var (
	// ErrUnknownFlight is returned when a flight key resolves to nothing.
	ErrUnknownFlight = errors.New("flight: unknown flight")

	// ErrFlightAlreadyExists is returned when registering a flight whose
	// key is already present.
	ErrFlightAlreadyExists = errors.New("flight: flight already registered")

	// ErrStatusFinal is returned when writing to a flight whose status
	// has been resolved and frozen.
	ErrStatusFinal = errors.New("flight: status is final")

	// ErrNotAuthorizedAirline is returned when a caller updates a flight
	// it does not operate.
	ErrNotAuthorizedAirline = errors.New("flight: caller does not operate this flight")

	// ErrInvalidStatus is returned for status codes outside the defined set.
	ErrInvalidStatus = errors.New("flight: undefined status code")
)

// Status is the departure verdict of a flight.
type Status uint8

const (
	StatusUnknown       Status = 0
	StatusOnTime        Status = 10
	StatusLateAirline   Status = 20
	StatusLateWeather   Status = 30
	StatusLateTechnical Status = 40
	StatusLateOther     Status = 50
)

// Valid reports whether s is one of the defined status codes.
func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

// Delayed reports whether s attributes a delay, whatever the cause.
func (s Status) Delayed() bool {
	switch s {
	case StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on-time"
	case StatusLateAirline:
		return "late-airline"
	case StatusLateWeather:
		return "late-weather"
	case StatusLateTechnical:
		return "late-technical"
	case StatusLateOther:
		return "late-other"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(s))
	}
}

// Flight is a single scheduled departure. Resolved marks a status written
// by oracle consensus; resolved flights reject further updates.
type Flight struct {
	Key       common.Hash
	Airline   common.Address
	Code      string
	Timestamp uint64
	Status    Status
	Resolved  bool
}
