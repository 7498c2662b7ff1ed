// Package airline implements the airline admission state machine: immediate
// registration while the registry is small, multiparty voting afterwards,
// and the membership funding step that activates a registered airline.
package airline

import (
	"errors"

	"github.com/surety-network/surety/common"
)

// Sentinel errors returned by admission and funding operations.
var (
	ErrNotAuthorizedAirline = errors.New("airline: caller is not a registered, funded airline")
	ErrAlreadyRegistered    = errors.New("airline: already registered")
	ErrAlreadyFunded        = errors.New("airline: membership fund already paid")
	ErrInsufficientPayment  = errors.New("airline: payment below join fee")
)

// Record is the persistable snapshot of one airline. VotesCast holds the
// admission targets this airline has voted for, sorted ascending.
type Record struct {
	Address    common.Address
	Registered bool
	Funded     bool
	VotesCast  []common.Address
}

// PendingVote is one admission target's distinct vote count. The entry is
// zeroed, not removed, when the target is admitted.
type PendingVote struct {
	Target common.Address
	Votes  uint64
}
