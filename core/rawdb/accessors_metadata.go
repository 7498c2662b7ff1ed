package rawdb

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/surety-network/surety/access"
	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/ledger"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/suretydb"
)

type storedAccess struct {
	Owner       []byte
	Operational bool
	Origins     [][]byte
}

// ReadAccessRecord retrieves the access control record. Its absence marks
// a database that has never been bootstrapped.
func ReadAccessRecord(db suretydb.KeyValueReader) (access.Record, bool) {
	data, err := db.Get(accessKey)
	if err != nil || len(data) == 0 {
		return access.Record{}, false
	}
	var stored storedAccess
	if err := cbor.Unmarshal(data, &stored); err != nil {
		log.Crit("Invalid access record in database", "err", err)
	}
	rec := access.Record{
		Owner:       common.BytesToAddress(stored.Owner),
		Operational: stored.Operational,
	}
	for _, o := range stored.Origins {
		rec.Origins = append(rec.Origins, common.BytesToAddress(o))
	}
	return rec, true
}

// WriteAccessRecord stores the access control record.
func WriteAccessRecord(db suretydb.KeyValueWriter, rec access.Record) {
	stored := storedAccess{
		Owner:       rec.Owner.Bytes(),
		Operational: rec.Operational,
	}
	for _, o := range rec.Origins {
		stored.Origins = append(stored.Origins, o.Bytes())
	}
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode access record", "err", err)
	}
	if err := db.Put(accessKey, data); err != nil {
		log.Crit("Failed to store access record", "err", err)
	}
}

type storedCredit struct {
	Passenger []byte
	Amount    uint64
}

type storedLedger struct {
	AirlineEscrow uint64
	InsurancePool uint64
	OracleFees    uint64
	TotalIn       uint64
	TotalOut      uint64
	Credits       []storedCredit
}

// ReadLedgerRecord retrieves the fund ledger record.
func ReadLedgerRecord(db suretydb.KeyValueReader) (ledger.Record, bool) {
	data, err := db.Get(ledgerKey)
	if err != nil || len(data) == 0 {
		return ledger.Record{}, false
	}
	var stored storedLedger
	if err := cbor.Unmarshal(data, &stored); err != nil {
		log.Crit("Invalid ledger record in database", "err", err)
	}
	rec := ledger.Record{
		AirlineEscrow: stored.AirlineEscrow,
		InsurancePool: stored.InsurancePool,
		OracleFees:    stored.OracleFees,
		TotalIn:       stored.TotalIn,
		TotalOut:      stored.TotalOut,
	}
	for _, c := range stored.Credits {
		rec.Credits = append(rec.Credits, ledger.Credit{
			Passenger: common.BytesToAddress(c.Passenger),
			Amount:    c.Amount,
		})
	}
	return rec, true
}

// WriteLedgerRecord stores the fund ledger record.
func WriteLedgerRecord(db suretydb.KeyValueWriter, rec ledger.Record) {
	stored := storedLedger{
		AirlineEscrow: rec.AirlineEscrow,
		InsurancePool: rec.InsurancePool,
		OracleFees:    rec.OracleFees,
		TotalIn:       rec.TotalIn,
		TotalOut:      rec.TotalOut,
	}
	for _, c := range rec.Credits {
		stored.Credits = append(stored.Credits, storedCredit{
			Passenger: c.Passenger.Bytes(),
			Amount:    c.Amount,
		})
	}
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode ledger record", "err", err)
	}
	if err := db.Put(ledgerKey, data); err != nil {
		log.Crit("Failed to store ledger record", "err", err)
	}
}

type storedEntropy struct {
	Seed  uint64
	Nonce uint64
}

// ReadEntropy retrieves the oracle randomness state.
func ReadEntropy(db suretydb.KeyValueReader) (seed, nonce uint64, ok bool) {
	data, err := db.Get(entropyKey)
	if err != nil || len(data) == 0 {
		return 0, 0, false
	}
	var stored storedEntropy
	if err := cbor.Unmarshal(data, &stored); err != nil {
		log.Crit("Invalid entropy record in database", "err", err)
	}
	return stored.Seed, stored.Nonce, true
}

// WriteEntropy stores the oracle randomness state.
func WriteEntropy(db suretydb.KeyValueWriter, seed, nonce uint64) {
	data, err := cbor.Marshal(&storedEntropy{Seed: seed, Nonce: nonce})
	if err != nil {
		log.Crit("Failed to encode entropy record", "err", err)
	}
	if err := db.Put(entropyKey, data); err != nil {
		log.Crit("Failed to store entropy record", "err", err)
	}
}
