package suretyapi

import (
	"net/http"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/core"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/params"
)

// OracleAPI implements the oracle_* RPC namespace: registration, index
// lookup and status reports.
type OracleAPI struct {
	sys    *core.System
	origin common.Address
}

// NewOracleAPI creates an OracleAPI driving the system through origin.
func NewOracleAPI(sys *core.System, origin common.Address) *OracleAPI {
	return &OracleAPI{sys: sys, origin: origin}
}

type RegisterOracleArgs struct {
	From  common.Address `json:"from"`
	Value Uint64         `json:"value"`
}

type IndexesReply struct {
	Indexes [params.OracleIndexCount]uint8 `json:"indexes"`
}

// RegisterOracle admits the caller as an oracle and returns its indexes.
func (o *OracleAPI) RegisterOracle(_ *http.Request, args *RegisterOracleArgs, reply *IndexesReply) error {
	record("oracle", "registerOracle")
	indexes, err := o.sys.RegisterOracle(core.TxContext{Origin: o.origin, Caller: args.From, Value: uint64(args.Value)})
	if err != nil {
		return err
	}
	reply.Indexes = indexes
	return nil
}

type MyIndexesArgs struct {
	From common.Address `json:"from"`
}

// MyIndexes returns the indexes assigned to the calling oracle.
func (o *OracleAPI) MyIndexes(_ *http.Request, args *MyIndexesArgs, reply *IndexesReply) error {
	record("oracle", "myIndexes")
	indexes, err := o.sys.GetMyIndexes(core.TxContext{Origin: o.origin, Caller: args.From})
	if err != nil {
		return err
	}
	reply.Indexes = indexes
	return nil
}

type SubmitResponseArgs struct {
	From      common.Address `json:"from"`
	Index     uint8          `json:"index"`
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp Uint64         `json:"timestamp"`
	Status    uint8          `json:"status"`
}

type SubmitResponseReply struct {
	Duplicate bool `json:"duplicate"`
	Reports   int  `json:"reports"`
	Resolved  bool `json:"resolved"`
}

// SubmitResponse records a status report from the calling oracle.
func (o *OracleAPI) SubmitResponse(_ *http.Request, args *SubmitResponseArgs, reply *SubmitResponseReply) error {
	record("oracle", "submitResponse")
	ctx := core.TxContext{Origin: o.origin, Caller: args.From}
	out, err := o.sys.SubmitOracleResponse(ctx, args.Index, args.Airline, args.Code, uint64(args.Timestamp), flight.Status(args.Status))
	if err != nil {
		return err
	}
	reply.Duplicate = out.Duplicate
	reply.Reports = out.Reports
	reply.Resolved = out.Resolved
	return nil
}
