package suretyapi

import (
	"net/http"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/core"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/params"
)

// AirlineAPI implements the airline_* RPC namespace: admission, membership
// funding and flight management.
type AirlineAPI struct {
	sys    *core.System
	origin common.Address
}

// NewAirlineAPI creates an AirlineAPI driving the system through origin.
func NewAirlineAPI(sys *core.System, origin common.Address) *AirlineAPI {
	return &AirlineAPI{sys: sys, origin: origin}
}

type RegisterAirlineArgs struct {
	From    common.Address `json:"from"`
	Airline common.Address `json:"airline"`
}

type RegisterAirlineReply struct {
	Admitted bool   `json:"admitted"`
	Votes    Uint64 `json:"votes"`
}

// RegisterAirline runs one admission step for the target airline.
func (a *AirlineAPI) RegisterAirline(_ *http.Request, args *RegisterAirlineArgs, reply *RegisterAirlineReply) error {
	record("airline", "registerAirline")
	admitted, votes, err := a.sys.RegisterAirline(core.TxContext{Origin: a.origin, Caller: args.From}, args.Airline)
	if err != nil {
		return err
	}
	reply.Admitted = admitted
	reply.Votes = Uint64(votes)
	return nil
}

type PayMembershipFundArgs struct {
	From  common.Address `json:"from"`
	Value Uint64         `json:"value"`
}

type PayMembershipFundReply struct {
	Escrowed Uint64 `json:"escrowed"`
	Refunded Uint64 `json:"refunded"`
}

// PayMembershipFund escrows the join fee out of the attached value.
func (a *AirlineAPI) PayMembershipFund(_ *http.Request, args *PayMembershipFundArgs, reply *PayMembershipFundReply) error {
	record("airline", "payMembershipFund")
	if err := a.sys.PayMembershipFund(core.TxContext{Origin: a.origin, Caller: args.From, Value: uint64(args.Value)}); err != nil {
		return err
	}
	reply.Escrowed = Uint64(params.JoinFee)
	reply.Refunded = args.Value - Uint64(params.JoinFee)
	return nil
}

type RegisterFlightArgs struct {
	From      common.Address `json:"from"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
}

type RegisterFlightReply struct {
	FlightKey common.Hash `json:"flightKey"`
}

// RegisterFlight adds a flight operated by the calling airline.
func (a *AirlineAPI) RegisterFlight(_ *http.Request, args *RegisterFlightArgs, reply *RegisterFlightReply) error {
	record("airline", "registerFlight")
	key, err := a.sys.RegisterFlight(core.TxContext{Origin: a.origin, Caller: args.From}, args.Code, uint64(args.Timestamp))
	if err != nil {
		return err
	}
	reply.FlightKey = key
	return nil
}

type SetFlightStatusArgs struct {
	From      common.Address `json:"from"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
	Status    uint8          `json:"status"`
}

// SetFlightStatus records a direct status update on the caller's flight.
func (a *AirlineAPI) SetFlightStatus(_ *http.Request, args *SetFlightStatusArgs, _ *struct{}) error {
	record("airline", "setFlightStatus")
	ctx := core.TxContext{Origin: a.origin, Caller: args.From}
	return a.sys.SetFlightStatus(ctx, args.Code, uint64(args.Timestamp), flight.Status(args.Status))
}

type AirlineArgs struct {
	Airline common.Address `json:"airline"`
}

type AirlineStateReply struct {
	Registered bool   `json:"registered"`
	Funded     bool   `json:"funded"`
	Pending    bool   `json:"pending"`
	Votes      Uint64 `json:"votes"`
}

// State returns the admission state of one airline.
func (a *AirlineAPI) State(_ *http.Request, args *AirlineArgs, reply *AirlineStateReply) error {
	record("airline", "state")
	reply.Registered = a.sys.AirlineIsRegistered(args.Airline)
	reply.Funded = a.sys.AirlineIsPaidFund(args.Airline)
	reply.Pending = a.sys.AirlineIsPending(args.Airline)
	reply.Votes = Uint64(a.sys.AirlineVotes(args.Airline))
	return nil
}

type CountReply struct {
	Count Uint64 `json:"count"`
}

// Count returns the number of admitted airlines.
func (a *AirlineAPI) Count(_ *http.Request, _ *struct{}, reply *CountReply) error {
	record("airline", "count")
	reply.Count = Uint64(a.sys.RegisteredAirlineCount())
	return nil
}
