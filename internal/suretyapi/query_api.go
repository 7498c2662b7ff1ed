package suretyapi

import (
	"net/http"

	"github.com/surety-network/surety/core"
)

// QueryAPI implements the query_* RPC namespace: read-only inspection of
// the full registry state.
type QueryAPI struct {
	sys *core.System
}

// NewQueryAPI creates a QueryAPI backed by the given system.
func NewQueryAPI(sys *core.System) *QueryAPI {
	return &QueryAPI{sys: sys}
}

type AirlinesReply struct {
	Airlines []APIAirline `json:"airlines"`
}

// Airlines returns all airline records ordered by address.
func (q *QueryAPI) Airlines(_ *http.Request, _ *struct{}, reply *AirlinesReply) error {
	record("query", "airlines")
	recs := q.sys.Airlines()
	reply.Airlines = make([]APIAirline, 0, len(recs))
	for _, rec := range recs {
		reply.Airlines = append(reply.Airlines, makeAPIAirline(rec))
	}
	return nil
}

type PendingVotesReply struct {
	Votes []APIPendingVote `json:"votes"`
}

// PendingVotes returns all admission tallies ordered by target.
func (q *QueryAPI) PendingVotes(_ *http.Request, _ *struct{}, reply *PendingVotesReply) error {
	record("query", "pendingVotes")
	votes := q.sys.PendingVotes()
	reply.Votes = make([]APIPendingVote, 0, len(votes))
	for _, v := range votes {
		reply.Votes = append(reply.Votes, APIPendingVote{Target: v.Target, Votes: Uint64(v.Votes)})
	}
	return nil
}

type FlightsReply struct {
	Flights []APIFlight `json:"flights"`
}

// Flights returns all flight records ordered by key.
func (q *QueryAPI) Flights(_ *http.Request, _ *struct{}, reply *FlightsReply) error {
	record("query", "flights")
	flights := q.sys.Flights()
	reply.Flights = make([]APIFlight, 0, len(flights))
	for _, f := range flights {
		reply.Flights = append(reply.Flights, makeAPIFlight(f))
	}
	return nil
}

type ClaimsReply struct {
	Claims []APIClaim `json:"claims"`
}

// Claims returns all insurance claims in purchase order.
func (q *QueryAPI) Claims(_ *http.Request, _ *struct{}, reply *ClaimsReply) error {
	record("query", "claims")
	claims := q.sys.Claims()
	reply.Claims = make([]APIClaim, 0, len(claims))
	for _, c := range claims {
		reply.Claims = append(reply.Claims, makeAPIClaim(c))
	}
	return nil
}

type OraclesReply struct {
	Oracles []APIOracle `json:"oracles"`
}

// Oracles returns all oracle registrations ordered by address.
func (q *QueryAPI) Oracles(_ *http.Request, _ *struct{}, reply *OraclesReply) error {
	record("query", "oracles")
	oracles := q.sys.Oracles()
	reply.Oracles = make([]APIOracle, 0, len(oracles))
	for _, o := range oracles {
		reply.Oracles = append(reply.Oracles, APIOracle{Address: o.Address, Indexes: o.Indexes})
	}
	return nil
}

type RequestsReply struct {
	Requests []APIRequest `json:"requests"`
}

// Requests returns all oracle status requests ordered by key.
func (q *QueryAPI) Requests(_ *http.Request, _ *struct{}, reply *RequestsReply) error {
	record("query", "requests")
	recs := q.sys.OracleRequests()
	reply.Requests = make([]APIRequest, 0, len(recs))
	for _, rec := range recs {
		reply.Requests = append(reply.Requests, makeAPIRequest(rec))
	}
	return nil
}

type LedgerReply struct {
	Ledger APILedger `json:"ledger"`
}

// Ledger returns the aggregate ledger balances.
func (q *QueryAPI) Ledger(_ *http.Request, _ *struct{}, reply *LedgerReply) error {
	record("query", "ledger")
	reply.Ledger = makeAPILedger(q.sys.LedgerTotals())
	return nil
}

type ConservationReply struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Conservation verifies that the ledger balances sum to the net value
// accepted by the registry.
func (q *QueryAPI) Conservation(_ *http.Request, _ *struct{}, reply *ConservationReply) error {
	record("query", "conservation")
	if err := q.sys.CheckConservation(); err != nil {
		reply.Error = err.Error()
		return nil
	}
	reply.Ok = true
	return nil
}
