package suretyapi

import (
	"net/http"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/core"
)

// AdminAPI implements the admin_* RPC namespace: the owner's circuit
// breaker and origin management. These operations authenticate the caller
// against the owner identity, not the origin gate.
type AdminAPI struct {
	sys *core.System
}

// NewAdminAPI creates an AdminAPI backed by the given system.
func NewAdminAPI(sys *core.System) *AdminAPI {
	return &AdminAPI{sys: sys}
}

type SetOperationalArgs struct {
	From        common.Address `json:"from"`
	Operational bool           `json:"operational"`
}

// SetOperational flips the operational circuit breaker.
func (a *AdminAPI) SetOperational(_ *http.Request, args *SetOperationalArgs, _ *struct{}) error {
	record("admin", "setOperational")
	return a.sys.SetOperational(core.TxContext{Caller: args.From}, args.Operational)
}

type CallerArgs struct {
	From   common.Address `json:"from"`
	Origin common.Address `json:"origin"`
}

// AuthorizeCaller grants an origin access to the gated operations.
func (a *AdminAPI) AuthorizeCaller(_ *http.Request, args *CallerArgs, _ *struct{}) error {
	record("admin", "authorizeCaller")
	return a.sys.Authorize(core.TxContext{Caller: args.From}, args.Origin)
}

// RevokeCaller withdraws an origin's access.
func (a *AdminAPI) RevokeCaller(_ *http.Request, args *CallerArgs, _ *struct{}) error {
	record("admin", "revokeCaller")
	return a.sys.Revoke(core.TxContext{Caller: args.From}, args.Origin)
}

type IsOperationalReply struct {
	Operational bool `json:"operational"`
}

// IsOperational reports whether the registry accepts gated operations.
func (a *AdminAPI) IsOperational(_ *http.Request, _ *struct{}, reply *IsOperationalReply) error {
	record("admin", "isOperational")
	reply.Operational = a.sys.IsOperational()
	return nil
}

type OwnerReply struct {
	Owner common.Address `json:"owner"`
}

// Owner returns the registry owner.
func (a *AdminAPI) Owner(_ *http.Request, _ *struct{}, reply *OwnerReply) error {
	record("admin", "owner")
	reply.Owner = a.sys.Owner()
	return nil
}
