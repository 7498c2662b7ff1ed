package airline

import (
	"bytes"
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/params"
)

// airlineState is the in-memory state of one airline. An entry is created on
// first successful admission and never deleted.
type airlineState struct {
	registered bool
	funded     bool
	votesCast  mapset.Set // admission targets this airline has voted for
}

// Registry is the admission state machine. Per target: Unknown -> Pending ->
// Registered, terminal. It is not safe for concurrent use; the owning system
// serializes access.
type Registry struct {
	airlines map[common.Address]*airlineState
	pending  map[common.Address]uint64 // target -> distinct vote count
	count    uint64                    // currently registered airlines
}

// NewRegistry returns an empty admission registry.
func NewRegistry() *Registry {
	return &Registry{
		airlines: make(map[common.Address]*airlineState),
		pending:  make(map[common.Address]uint64),
	}
}

// Bootstrap admits first unconditionally. Called once when the registry is
// created empty; the first airline needs no votes and no sponsoring caller.
func (r *Registry) Bootstrap(first common.Address) {
	if r.count == 0 && !r.isRegistered(first) {
		r.admit(first)
	}
}

// Register processes an admission call from caller on behalf of target.
//
// While fewer than params.ConsensusThreshold airlines are registered the
// target is admitted immediately with zero votes. Afterwards the call counts
// as one vote; target is admitted once distinct votes reach
// count/params.MultiPartyRate. A repeated vote from the same caller leaves
// the tally unchanged. The returned vote count is the tally at the end of
// this call, before any zeroing on admission.
func (r *Registry) Register(caller, target common.Address) (admitted bool, votes uint64, err error) {
	st := r.airlines[caller]
	if st == nil || !st.registered || !st.funded {
		return false, 0, ErrNotAuthorizedAirline
	}
	if r.isRegistered(target) {
		return false, 0, ErrAlreadyRegistered
	}

	if r.count < params.ConsensusThreshold {
		r.admit(target)
		return true, 0, nil
	}

	if st.votesCast.Contains(target) {
		return false, r.pending[target], nil
	}
	st.votesCast.Add(target)
	r.pending[target]++
	votes = r.pending[target]

	if votes >= r.count/params.MultiPartyRate {
		r.admit(target)
		r.pending[target] = 0
		return true, votes, nil
	}
	return false, votes, nil
}

// PayFund marks the caller's membership fund as paid. Exactly params.JoinFee
// enters escrow; the returned excess is refunded by the caller of this method.
func (r *Registry) PayFund(caller common.Address, value uint64) (excess uint64, err error) {
	st := r.airlines[caller]
	if st == nil || !st.registered {
		return 0, ErrNotAuthorizedAirline
	}
	if st.funded {
		return 0, ErrAlreadyFunded
	}
	if value < params.JoinFee {
		return 0, ErrInsufficientPayment
	}
	st.funded = true
	return value - params.JoinFee, nil
}

func (r *Registry) admit(target common.Address) {
	st := r.airlines[target]
	if st == nil {
		st = &airlineState{votesCast: mapset.NewSet()}
		r.airlines[target] = st
	}
	st.registered = true
	r.count++
}

func (r *Registry) isRegistered(id common.Address) bool {
	st := r.airlines[id]
	return st != nil && st.registered
}

// IsRegistered reports whether id has been admitted.
func (r *Registry) IsRegistered(id common.Address) bool { return r.isRegistered(id) }

// IsFunded reports whether id has paid its membership fund.
func (r *Registry) IsFunded(id common.Address) bool {
	st := r.airlines[id]
	return st != nil && st.funded
}

// IsPending reports whether id has received admission votes but is not yet
// registered.
func (r *Registry) IsPending(id common.Address) bool {
	_, voted := r.pending[id]
	return voted && !r.isRegistered(id)
}

// Votes returns the current distinct vote count for target.
func (r *Registry) Votes(target common.Address) uint64 { return r.pending[target] }

// Count returns the number of registered airlines.
func (r *Registry) Count() uint64 { return r.count }

// RecordOf returns the persistable snapshot of one airline.
func (r *Registry) RecordOf(id common.Address) (Record, bool) {
	st := r.airlines[id]
	if st == nil {
		return Record{}, false
	}
	return r.record(id, st), true
}

// Records returns snapshots of all airlines, sorted by address ascending.
func (r *Registry) Records() []Record {
	recs := make([]Record, 0, len(r.airlines))
	for id, st := range r.airlines {
		recs = append(recs, r.record(id, st))
	}
	sort.Slice(recs, func(i, j int) bool {
		return bytes.Compare(recs[i].Address[:], recs[j].Address[:]) < 0
	})
	return recs
}

// PendingVotes returns the vote table, sorted by target address ascending.
func (r *Registry) PendingVotes() []PendingVote {
	votes := make([]PendingVote, 0, len(r.pending))
	for target, n := range r.pending {
		votes = append(votes, PendingVote{Target: target, Votes: n})
	}
	sort.Slice(votes, func(i, j int) bool {
		return bytes.Compare(votes[i].Target[:], votes[j].Target[:]) < 0
	})
	return votes
}

// Load replaces the registry state with the given snapshots.
func (r *Registry) Load(records []Record, pending []PendingVote) {
	r.airlines = make(map[common.Address]*airlineState, len(records))
	r.pending = make(map[common.Address]uint64, len(pending))
	r.count = 0
	for _, rec := range records {
		st := &airlineState{
			registered: rec.Registered,
			funded:     rec.Funded,
			votesCast:  mapset.NewSet(),
		}
		for _, target := range rec.VotesCast {
			st.votesCast.Add(target)
		}
		r.airlines[rec.Address] = st
		if rec.Registered {
			r.count++
		}
	}
	for _, pv := range pending {
		r.pending[pv.Target] = pv.Votes
	}
}

func (r *Registry) record(id common.Address, st *airlineState) Record {
	votes := make([]common.Address, 0, st.votesCast.Cardinality())
	for _, v := range st.votesCast.ToSlice() {
		votes = append(votes, v.(common.Address))
	}
	sort.Slice(votes, func(i, j int) bool {
		return bytes.Compare(votes[i][:], votes[j][:]) < 0
	})
	return Record{
		Address:    id,
		Registered: st.registered,
		Funded:     st.funded,
		VotesCast:  votes,
	}
}
