package flight

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/crypto"
)

// Key derives the registry key of a flight from its identifying triple.
func Key(airline common.Address, code string, timestamp uint64) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestamp)
	return crypto.Keccak256Hash(airline.Bytes(), []byte(code), ts[:])
}

// Registry is the in-memory flight index. It is not safe for concurrent
// use; the owning system serializes access.
type Registry struct {
	flights map[common.Hash]*Flight
}

func NewRegistry() *Registry {
	return &Registry{flights: make(map[common.Hash]*Flight)}
}

// Register creates a flight operated by the given airline with status
// Unknown. The caller's authority to act for the airline is checked by
// the system, not here.
func (r *Registry) Register(airline common.Address, code string, timestamp uint64) (common.Hash, error) {
	key := Key(airline, code, timestamp)
	if _, ok := r.flights[key]; ok {
		return common.Hash{}, ErrFlightAlreadyExists
	}
	r.flights[key] = &Flight{
		Key:       key,
		Airline:   airline,
		Code:      code,
		Timestamp: timestamp,
		Status:    StatusUnknown,
	}
	return key, nil
}

// SetStatus records a direct status update from the operating airline.
// Direct updates may overwrite each other until the flight resolves;
// afterwards they fail with ErrStatusFinal.
func (r *Registry) SetStatus(key common.Hash, status Status, caller common.Address) error {
	f, ok := r.flights[key]
	if !ok {
		return ErrUnknownFlight
	}
	if f.Airline != caller {
		return ErrNotAuthorizedAirline
	}
	if f.Resolved {
		return ErrStatusFinal
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	f.Status = status
	return nil
}

// Resolve finalizes the status of a flight on behalf of oracle consensus.
// A flight resolves at most once.
func (r *Registry) Resolve(key common.Hash, status Status) error {
	f, ok := r.flights[key]
	if !ok {
		return ErrUnknownFlight
	}
	if f.Resolved {
		return ErrStatusFinal
	}
	f.Status = status
	f.Resolved = true
	return nil
}

// Get returns a copy of the flight under key.
func (r *Registry) Get(key common.Hash) (Flight, bool) {
	f, ok := r.flights[key]
	if !ok {
		return Flight{}, false
	}
	return *f, true
}

// StatusOf returns the current status of the flight under key.
func (r *Registry) StatusOf(key common.Hash) (Status, error) {
	f, ok := r.flights[key]
	if !ok {
		return StatusUnknown, ErrUnknownFlight
	}
	return f.Status, nil
}

// Count returns the number of registered flights.
func (r *Registry) Count() int { return len(r.flights) }

// Flights returns all registered flights ordered by key.
func (r *Registry) Flights() []Flight {
	out := make([]Flight, 0, len(r.flights))
	for _, f := range r.flights {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Key[:], out[j].Key[:]) < 0
	})
	return out
}

// Load replaces the registry contents with previously recorded flights.
func (r *Registry) Load(flights []Flight) {
	r.flights = make(map[common.Hash]*Flight, len(flights))
	for _, f := range flights {
		stored := f
		r.flights[f.Key] = &stored
	}
}
