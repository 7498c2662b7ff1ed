// Package oracle runs the flight status consensus among registered oracles.
package oracle

import (
	"encoding/binary"
	"errors"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/crypto"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/params"
)

var (
	// ErrAlreadyRegistered is returned when an oracle registers twice.
	ErrAlreadyRegistered = errors.New("oracle: already registered")

	// ErrNotRegistered is returned when querying an unknown oracle.
	ErrNotRegistered = errors.New("oracle: not registered")

	// ErrInsufficientPayment is returned when the registration fee is not
	// covered.
	ErrInsufficientPayment = errors.New("oracle: registration fee not covered")

	// ErrIndexMismatch is returned when a response carries an index the
	// caller does not hold.
	ErrIndexMismatch = errors.New("oracle: index does not match caller")

	// ErrNoMatchingRequest is returned when no open request matches the
	// response key.
	ErrNoMatchingRequest = errors.New("oracle: no open request for response")
)

// Source supplies the randomness behind index assignment and request
// indexing.
type Source interface {
	Draw(account common.Address) uint8
}

// SeedSource derives draws from a fixed seed and a monotonically increasing
// nonce, so a recorded (seed, nonce) pair replays the same draw stream.
type SeedSource struct {
	seed  uint64
	nonce uint64
}

func NewSeedSource(seed uint64) *SeedSource {
	return &SeedSource{seed: seed}
}

func (s *SeedSource) Draw(account common.Address) uint8 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], s.seed)
	binary.BigEndian.PutUint64(buf[8:], s.nonce)
	s.nonce++
	h := crypto.Keccak256(buf[:], account.Bytes())
	return h[0] % params.OracleIndexRange
}

// State returns the seed and the next nonce.
func (s *SeedSource) State() (seed, nonce uint64) {
	return s.seed, s.nonce
}

// Restore sets the next nonce after a reload.
func (s *SeedSource) Restore(nonce uint64) {
	s.nonce = nonce
}

// Oracle is a registered status reporter and the indexes it serves.
type Oracle struct {
	Address common.Address
	Indexes [params.OracleIndexCount]uint8
}

// HasIndex reports whether the oracle serves the given index.
func (o Oracle) HasIndex(index uint8) bool {
	for _, idx := range o.Indexes {
		if idx == index {
			return true
		}
	}
	return false
}

// Outcome describes what a submitted response did to its request.
type Outcome struct {
	Duplicate bool // the caller had already reported this status
	Reports   int  // distinct reporters behind the submitted status
	Resolved  bool // this response closed the request
	Status    flight.Status
}

// RequestKey derives the lookup key of a status request.
func RequestKey(index uint8, airline common.Address, code string, timestamp uint64) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestamp)
	return crypto.Keccak256Hash([]byte{index}, airline.Bytes(), []byte(code), ts[:])
}
