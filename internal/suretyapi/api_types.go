package suretyapi

import (
	"github.com/surety-network/surety/airline"
	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/insurance"
	"github.com/surety-network/surety/ledger"
	"github.com/surety-network/surety/oracle"
	"github.com/surety-network/surety/params"
)

// APIAirline is the wire form of an airline record.
type APIAirline struct {
	Address    common.Address   `json:"address"`
	Registered bool             `json:"registered"`
	Funded     bool             `json:"funded"`
	VotesCast  []common.Address `json:"votesCast"`
}

func makeAPIAirline(rec airline.Record) APIAirline {
	return APIAirline{
		Address:    rec.Address,
		Registered: rec.Registered,
		Funded:     rec.Funded,
		VotesCast:  rec.VotesCast,
	}
}

// APIPendingVote is the wire form of one admission tally.
type APIPendingVote struct {
	Target common.Address `json:"target"`
	Votes  Uint64         `json:"votes"`
}

// APIFlight is the wire form of a flight record.
type APIFlight struct {
	Key        common.Hash    `json:"key"`
	Airline    common.Address `json:"airline"`
	Code       string         `json:"code"`
	Timestamp  Uint64         `json:"timestamp"`
	Status     uint8          `json:"status"`
	StatusName string         `json:"statusName"`
	Resolved   bool           `json:"resolved"`
}

func makeAPIFlight(f flight.Flight) APIFlight {
	return APIFlight{
		Key:        f.Key,
		Airline:    f.Airline,
		Code:       f.Code,
		Timestamp:  Uint64(f.Timestamp),
		Status:     uint8(f.Status),
		StatusName: f.Status.String(),
		Resolved:   f.Resolved,
	}
}

// APIClaim is the wire form of an insurance claim.
type APIClaim struct {
	Key       common.Hash    `json:"key"`
	Passenger common.Address `json:"passenger"`
	FlightKey common.Hash    `json:"flightKey"`
	Premium   Uint64         `json:"premium"`
	Payout    Uint64         `json:"payout"`
	Paid      bool           `json:"paid"`
}

func makeAPIClaim(c insurance.Claim) APIClaim {
	return APIClaim{
		Key:       c.Key,
		Passenger: c.Passenger,
		FlightKey: c.FlightKey,
		Premium:   Uint64(c.Premium),
		Payout:    Uint64(insurance.Payout(c.Premium)),
		Paid:      c.Paid,
	}
}

// APIOracle is the wire form of an oracle registration.
type APIOracle struct {
	Address common.Address                 `json:"address"`
	Indexes [params.OracleIndexCount]uint8 `json:"indexes"`
}

// APIStatusReport is one status code's report set within a request.
type APIStatusReport struct {
	Status     uint8            `json:"status"`
	StatusName string           `json:"statusName"`
	Oracles    []common.Address `json:"oracles"`
}

// APIRequest is the wire form of an oracle status request.
type APIRequest struct {
	Key       common.Hash       `json:"key"`
	Index     uint8             `json:"index"`
	Airline   common.Address    `json:"airline"`
	Code      string            `json:"code"`
	Timestamp Uint64            `json:"timestamp"`
	Requester common.Address    `json:"requester"`
	Open      bool              `json:"open"`
	Reports   []APIStatusReport `json:"reports"`
}

func makeAPIRequest(rec oracle.RequestRecord) APIRequest {
	reports := make([]APIStatusReport, 0, len(rec.Reports))
	for _, rep := range rec.Reports {
		reports = append(reports, APIStatusReport{
			Status:     uint8(rep.Status),
			StatusName: rep.Status.String(),
			Oracles:    rep.Oracles,
		})
	}
	return APIRequest{
		Key:       rec.Key,
		Index:     rec.Index,
		Airline:   rec.Airline,
		Code:      rec.Code,
		Timestamp: Uint64(rec.Timestamp),
		Requester: rec.Requester,
		Open:      rec.Open,
		Reports:   reports,
	}
}

// APILedger is the wire form of the aggregate ledger balances.
type APILedger struct {
	AirlineEscrow Uint64 `json:"airlineEscrow"`
	InsurancePool Uint64 `json:"insurancePool"`
	OracleFees    Uint64 `json:"oracleFees"`
	Credits       Uint64 `json:"credits"`
	TotalIn       Uint64 `json:"totalIn"`
	TotalOut      Uint64 `json:"totalOut"`
}

func makeAPILedger(t ledger.Totals) APILedger {
	return APILedger{
		AirlineEscrow: Uint64(t.AirlineEscrow),
		InsurancePool: Uint64(t.InsurancePool),
		OracleFees:    Uint64(t.OracleFees),
		Credits:       Uint64(t.Credits),
		TotalIn:       Uint64(t.TotalIn),
		TotalOut:      Uint64(t.TotalOut),
	}
}
