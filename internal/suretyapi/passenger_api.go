package suretyapi

import (
	"net/http"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/core"
)

// PassengerAPI implements the passenger_* RPC namespace: insurance
// purchase, credit withdrawal and flight status requests.
type PassengerAPI struct {
	sys    *core.System
	origin common.Address
}

// NewPassengerAPI creates a PassengerAPI driving the system through origin.
func NewPassengerAPI(sys *core.System, origin common.Address) *PassengerAPI {
	return &PassengerAPI{sys: sys, origin: origin}
}

type BuyInsuranceArgs struct {
	From      common.Address `json:"from"`
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
	Amount    Uint64         `json:"amount"`
	Value     Uint64         `json:"value"`
}

type BuyInsuranceReply struct {
	ClaimKey common.Hash `json:"claimKey"`
	Refunded Uint64      `json:"refunded"`
}

// BuyInsurance opens a claim on the flight for the calling passenger.
func (p *PassengerAPI) BuyInsurance(_ *http.Request, args *BuyInsuranceArgs, reply *BuyInsuranceReply) error {
	record("passenger", "buyInsurance")
	ctx := core.TxContext{Origin: p.origin, Caller: args.From, Value: uint64(args.Value)}
	key, err := p.sys.BuyInsurance(ctx, args.Airline, args.Code, uint64(args.Timestamp), uint64(args.Amount))
	if err != nil {
		return err
	}
	reply.ClaimKey = key
	reply.Refunded = args.Value - args.Amount
	return nil
}

type CheckInsuranceArgs struct {
	Passenger common.Address `json:"passenger"`
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
}

type CheckInsuranceReply struct {
	Premium Uint64 `json:"premium"`
}

// CheckInsurance returns the premium the passenger declared on the flight,
// zero when no claim exists.
func (p *PassengerAPI) CheckInsurance(_ *http.Request, args *CheckInsuranceArgs, reply *CheckInsuranceReply) error {
	record("passenger", "checkInsurance")
	reply.Premium = Uint64(p.sys.CheckInsuranceAmount(args.Passenger, args.Airline, args.Code, uint64(args.Timestamp)))
	return nil
}

type BalanceArgs struct {
	Passenger common.Address `json:"passenger"`
}

type BalanceReply struct {
	Credit Uint64 `json:"credit"`
}

// Balance returns the withdrawable credit of the passenger.
func (p *PassengerAPI) Balance(_ *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	record("passenger", "balance")
	reply.Credit = Uint64(p.sys.PassengerBalance(args.Passenger))
	return nil
}

type WithdrawArgs struct {
	From   common.Address `json:"from"`
	Amount Uint64         `json:"amount"`
}

// Withdraw moves credited payout value out of the registry to the caller.
func (p *PassengerAPI) Withdraw(_ *http.Request, args *WithdrawArgs, _ *struct{}) error {
	record("passenger", "withdraw")
	return p.sys.Withdraw(core.TxContext{Origin: p.origin, Caller: args.From}, uint64(args.Amount))
}

type RequestFlightStatusArgs struct {
	From      common.Address `json:"from"`
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
}

type RequestFlightStatusReply struct {
	Index uint8 `json:"index"`
}

// RequestFlightStatus opens an oracle status request for the flight.
func (p *PassengerAPI) RequestFlightStatus(_ *http.Request, args *RequestFlightStatusArgs, reply *RequestFlightStatusReply) error {
	record("passenger", "requestFlightStatus")
	ctx := core.TxContext{Origin: p.origin, Caller: args.From}
	index, err := p.sys.RequestFlightStatus(ctx, args.Airline, args.Code, uint64(args.Timestamp))
	if err != nil {
		return err
	}
	reply.Index = index
	return nil
}

type FlightStatusArgs struct {
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
}

type FlightStatusReply struct {
	Status     uint8  `json:"status"`
	StatusName string `json:"statusName"`
	Resolved   bool   `json:"resolved"`
}

// FlightStatus returns the current status of the identified flight.
func (p *PassengerAPI) FlightStatus(_ *http.Request, args *FlightStatusArgs, reply *FlightStatusReply) error {
	record("passenger", "flightStatus")
	f, err := p.sys.FlightOf(args.Airline, args.Code, uint64(args.Timestamp))
	if err != nil {
		return err
	}
	reply.Status = uint8(f.Status)
	reply.StatusName = f.Status.String()
	reply.Resolved = f.Resolved
	return nil
}
