// Package suretyapi provides the JSON-RPC namespaces of the registry: the
// admin_*, airline_*, passenger_*, oracle_* and query_* services served by
// the node. Callers identify themselves in the request body; the node's own
// origin identity is attached to every gated operation.
package suretyapi

import (
	"strconv"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/core"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/metrics"
)

// Uint64 is a uint64 that JSON-marshals as a decimal string, keeping value
// amounts exact in clients that parse numbers as floats.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint64) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == "null" {
		return nil
	}
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	val, err := strconv.ParseUint(str, 10, 64)
	*u = Uint64(val)
	return err
}

// NewServer assembles the JSON-RPC server with every namespace registered.
func NewServer(sys *core.System, origin common.Address) (*rpc.Server, error) {
	srv := rpc.NewServer()
	codec := json2.NewCodec()
	srv.RegisterCodec(codec, "application/json")
	srv.RegisterCodec(codec, "application/json;charset=UTF-8")

	services := map[string]interface{}{
		"admin":     NewAdminAPI(sys),
		"airline":   NewAirlineAPI(sys, origin),
		"passenger": NewPassengerAPI(sys, origin),
		"oracle":    NewOracleAPI(sys, origin),
		"query":     NewQueryAPI(sys),
	}
	for name, svc := range services {
		if err := srv.RegisterService(svc, name); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

// record accounts one API call in the request metrics and debug log.
func record(service, method string) {
	metrics.RPCRequests.WithLabelValues(service + "." + method).Inc()
	log.Debug("API called", "service", service, "method", method)
}
