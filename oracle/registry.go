package oracle

import (
	"bytes"
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/params"
)

// request is a single status fetch and the reports collected for it. A
// request stays addressable after it closes so late responses can be told
// apart from responses to a key that never existed.
type request struct {
	key       common.Hash
	index     uint8
	airline   common.Address
	code      string
	timestamp uint64
	requester common.Address
	open      bool
	reports   map[flight.Status]mapset.Set
}

func (r *request) reporters(status flight.Status) mapset.Set {
	set, ok := r.reports[status]
	if !ok {
		set = mapset.NewSet()
		r.reports[status] = set
	}
	return set
}

// Registry tracks registered oracles and open status requests. Not safe
// for concurrent use; the owning system serializes access.
type Registry struct {
	src      Source
	oracles  map[common.Address]*Oracle
	requests map[common.Hash]*request
}

func NewRegistry(src Source) *Registry {
	return &Registry{
		src:      src,
		oracles:  make(map[common.Address]*Oracle),
		requests: make(map[common.Hash]*request),
	}
}

// assignIndexes draws three distinct indexes for a new oracle, redrawing
// until each differs from the ones before it.
func (r *Registry) assignIndexes(account common.Address) [params.OracleIndexCount]uint8 {
	var idx [params.OracleIndexCount]uint8
	idx[0] = r.src.Draw(account)
	idx[1] = r.src.Draw(account)
	for idx[1] == idx[0] {
		idx[1] = r.src.Draw(account)
	}
	idx[2] = r.src.Draw(account)
	for idx[2] == idx[0] || idx[2] == idx[1] {
		idx[2] = r.src.Draw(account)
	}
	return idx
}

// Register admits a new oracle and assigns its indexes. The full fee is
// retained; there is no refund path for oracles.
func (r *Registry) Register(caller common.Address, value uint64) ([params.OracleIndexCount]uint8, error) {
	if value < params.OracleRegistrationFee {
		return [params.OracleIndexCount]uint8{}, ErrInsufficientPayment
	}
	if _, ok := r.oracles[caller]; ok {
		return [params.OracleIndexCount]uint8{}, ErrAlreadyRegistered
	}
	o := &Oracle{Address: caller, Indexes: r.assignIndexes(caller)}
	r.oracles[caller] = o
	return o.Indexes, nil
}

// IsRegistered reports whether the address belongs to a registered oracle.
func (r *Registry) IsRegistered(addr common.Address) bool {
	_, ok := r.oracles[addr]
	return ok
}

// Indexes returns the indexes held by a registered oracle.
func (r *Registry) Indexes(caller common.Address) ([params.OracleIndexCount]uint8, error) {
	o, ok := r.oracles[caller]
	if !ok {
		return [params.OracleIndexCount]uint8{}, ErrNotRegistered
	}
	return o.Indexes, nil
}

// OpenRequest opens a status request for the flight triple under an index
// drawn for the requester. Reopening the key of a still-open request
// returns it untouched; a closed request under the same key is replaced by
// a fresh one.
func (r *Registry) OpenRequest(caller, airline common.Address, code string, timestamp uint64) (uint8, common.Hash, error) {
	index := r.src.Draw(caller)
	key := RequestKey(index, airline, code, timestamp)
	if req, ok := r.requests[key]; ok && req.open {
		return req.index, key, nil
	}
	r.requests[key] = &request{
		key:       key,
		index:     index,
		airline:   airline,
		code:      code,
		timestamp: timestamp,
		requester: caller,
		open:      true,
		reports:   make(map[flight.Status]mapset.Set),
	}
	return index, key, nil
}

// SubmitResponse records the caller's status report against the matching
// open request. The caller must hold the index it reports under. A repeat
// report of the same status by the same oracle counts once. The request
// closes when any status gathers MinOracleResponses distinct reporters.
func (r *Registry) SubmitResponse(caller common.Address, index uint8, airline common.Address, code string, timestamp uint64, status flight.Status) (Outcome, error) {
	o, ok := r.oracles[caller]
	if !ok || !o.HasIndex(index) {
		return Outcome{}, ErrIndexMismatch
	}
	key := RequestKey(index, airline, code, timestamp)
	req, ok := r.requests[key]
	if !ok || !req.open {
		return Outcome{}, ErrNoMatchingRequest
	}
	set := req.reporters(status)
	if !set.Add(caller) {
		return Outcome{Duplicate: true, Reports: set.Cardinality(), Status: status}, nil
	}
	out := Outcome{Reports: set.Cardinality(), Status: status}
	if out.Reports >= params.MinOracleResponses {
		req.open = false
		out.Resolved = true
	}
	return out, nil
}

// Count returns the number of registered oracles.
func (r *Registry) Count() int { return len(r.oracles) }

// Oracles returns all registered oracles ordered by address.
func (r *Registry) Oracles() []Oracle {
	out := make([]Oracle, 0, len(r.oracles))
	for _, o := range r.oracles {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// RequestOf returns the recorded form of the request under key.
func (r *Registry) RequestOf(key common.Hash) (RequestRecord, bool) {
	req, ok := r.requests[key]
	if !ok {
		return RequestRecord{}, false
	}
	return recordOf(req), true
}

// Requests returns all requests, open and closed, ordered by key.
func (r *Registry) Requests() []RequestRecord {
	out := make([]RequestRecord, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, recordOf(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Key[:], out[j].Key[:]) < 0
	})
	return out
}

// Load replaces the registry contents with previously recorded oracles and
// requests.
func (r *Registry) Load(oracles []Oracle, requests []RequestRecord) {
	r.oracles = make(map[common.Address]*Oracle, len(oracles))
	for _, o := range oracles {
		stored := o
		r.oracles[o.Address] = &stored
	}
	r.requests = make(map[common.Hash]*request, len(requests))
	for _, rec := range requests {
		req := &request{
			key:       rec.Key,
			index:     rec.Index,
			airline:   rec.Airline,
			code:      rec.Code,
			timestamp: rec.Timestamp,
			requester: rec.Requester,
			open:      rec.Open,
			reports:   make(map[flight.Status]mapset.Set, len(rec.Reports)),
		}
		for _, rep := range rec.Reports {
			set := mapset.NewSet()
			for _, addr := range rep.Oracles {
				set.Add(addr)
			}
			req.reports[rep.Status] = set
		}
		r.requests[rec.Key] = req
	}
}

// StatusReport lists the oracles that reported one status on a request.
type StatusReport struct {
	Status  flight.Status
	Oracles []common.Address
}

// RequestRecord is the recorded form of a status request.
type RequestRecord struct {
	Key       common.Hash
	Index     uint8
	Airline   common.Address
	Code      string
	Timestamp uint64
	Requester common.Address
	Open      bool
	Reports   []StatusReport
}

func recordOf(req *request) RequestRecord {
	rec := RequestRecord{
		Key:       req.key,
		Index:     req.index,
		Airline:   req.airline,
		Code:      req.code,
		Timestamp: req.timestamp,
		Requester: req.requester,
		Open:      req.open,
	}
	statuses := make([]flight.Status, 0, len(req.reports))
	for s := range req.reports {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, s := range statuses {
		set := req.reports[s]
		addrs := make([]common.Address, 0, set.Cardinality())
		for _, v := range set.ToSlice() {
			addrs = append(addrs, v.(common.Address))
		}
		sort.Slice(addrs, func(i, j int) bool {
			return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
		})
		rec.Reports = append(rec.Reports, StatusReport{Status: s, Oracles: addrs})
	}
	return rec
}
