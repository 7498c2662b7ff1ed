// Package rawdb contains the low level database accessors of the registry.
package rawdb

import (
	"github.com/surety-network/surety/common"
)

// The fields below define the low level database schema prefixing.
var (
	// accessKey tracks the access control record.
	accessKey = []byte("AccessRecord")

	// ledgerKey tracks the fund ledger record.
	ledgerKey = []byte("LedgerRecord")

	// entropyKey tracks the oracle randomness state.
	entropyKey = []byte("OracleEntropy")

	airlinePrefix = []byte("a") // airlinePrefix + address -> airline record
	pendingPrefix = []byte("p") // pendingPrefix + address -> pending admission votes
	flightPrefix  = []byte("f") // flightPrefix + flight key -> flight record
	claimPrefix   = []byte("c") // claimPrefix + claim key -> insurance claim
	oraclePrefix  = []byte("o") // oraclePrefix + address -> oracle record
	requestPrefix = []byte("r") // requestPrefix + request key -> status request record
)

// airlineKey = airlinePrefix + address
func airlineKey(addr common.Address) []byte {
	return append(airlinePrefix, addr.Bytes()...)
}

// pendingKey = pendingPrefix + address
func pendingKey(addr common.Address) []byte {
	return append(pendingPrefix, addr.Bytes()...)
}

// flightKey = flightPrefix + flight key
func flightKey(key common.Hash) []byte {
	return append(flightPrefix, key.Bytes()...)
}

// claimKey = claimPrefix + claim key
func claimKey(key common.Hash) []byte {
	return append(claimPrefix, key.Bytes()...)
}

// oracleKey = oraclePrefix + address
func oracleKey(addr common.Address) []byte {
	return append(oraclePrefix, addr.Bytes()...)
}

// requestKey = requestPrefix + request key
func requestKey(key common.Hash) []byte {
	return append(requestPrefix, key.Bytes()...)
}
