// Package insurance manages passenger claims and delay payouts.
package insurance

import (
	"errors"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/crypto"
	"github.com/surety-network/surety/params"
)

var (
	// ErrDuplicateClaim is returned when a passenger already holds a
	// claim on the flight.
	ErrDuplicateClaim = errors.New("insurance: claim already exists for passenger and flight")

	// ErrInvalidPremium is returned for premiums of zero or above the
	// purchase cap.
	ErrInvalidPremium = errors.New("insurance: premium out of range")

	// ErrInvalidBuyer is returned when a registered airline tries to buy
	// insurance.
	ErrInvalidBuyer = errors.New("insurance: registered airlines cannot buy insurance")

	// ErrInsufficientPayment is returned when the attached value does not
	// cover the declared premium.
	ErrInsufficientPayment = errors.New("insurance: payment below declared premium")
)

// Claim is a single passenger's insurance position on one flight. Seq is
// the purchase sequence number; payouts run in Seq order.
type Claim struct {
	Key       common.Hash
	Passenger common.Address
	FlightKey common.Hash
	Premium   uint64
	Paid      bool
	Seq       uint64
}

// ClaimKey derives the pool key of a claim from its (passenger, flight)
// pair.
func ClaimKey(passenger common.Address, flightKey common.Hash) common.Hash {
	return crypto.Keccak256Hash(passenger.Bytes(), flightKey.Bytes())
}

// Payout returns the credit owed on a delayed flight for a premium,
// rounded down.
func Payout(premium uint64) uint64 {
	return premium * params.PayoutNumerator / params.PayoutDenominator
}
