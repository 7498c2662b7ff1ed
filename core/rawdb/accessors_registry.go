package rawdb

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/surety-network/surety/airline"
	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/insurance"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/oracle"
	"github.com/surety-network/surety/params"
	"github.com/surety-network/surety/suretydb"
)

// Stored forms flatten addresses and hashes to plain bytes so the database
// encoding stays independent of the in-memory types.

type storedAirline struct {
	Address    []byte
	Registered bool
	Funded     bool
	VotesCast  [][]byte
}

func (s *storedAirline) record() airline.Record {
	rec := airline.Record{
		Address:    common.BytesToAddress(s.Address),
		Registered: s.Registered,
		Funded:     s.Funded,
	}
	for _, v := range s.VotesCast {
		rec.VotesCast = append(rec.VotesCast, common.BytesToAddress(v))
	}
	return rec
}

func newStoredAirline(rec airline.Record) storedAirline {
	s := storedAirline{
		Address:    rec.Address.Bytes(),
		Registered: rec.Registered,
		Funded:     rec.Funded,
	}
	for _, v := range rec.VotesCast {
		s.VotesCast = append(s.VotesCast, v.Bytes())
	}
	return s
}

// ReadAirline retrieves the airline record stored under addr.
func ReadAirline(db suretydb.KeyValueReader, addr common.Address) (airline.Record, bool) {
	data, err := db.Get(airlineKey(addr))
	if err != nil || len(data) == 0 {
		return airline.Record{}, false
	}
	var stored storedAirline
	if err := cbor.Unmarshal(data, &stored); err != nil {
		log.Crit("Invalid airline record in database", "addr", addr, "err", err)
	}
	return stored.record(), true
}

// WriteAirline stores an airline record.
func WriteAirline(db suretydb.KeyValueWriter, rec airline.Record) {
	stored := newStoredAirline(rec)
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode airline record", "err", err)
	}
	if err := db.Put(airlineKey(rec.Address), data); err != nil {
		log.Crit("Failed to store airline record", "err", err)
	}
}

// ReadAllAirlines retrieves every stored airline record.
func ReadAllAirlines(db suretydb.Iteratee) []airline.Record {
	var out []airline.Record
	it := db.NewIterator(airlinePrefix, nil)
	defer it.Release()
	for it.Next() {
		var stored storedAirline
		if err := cbor.Unmarshal(it.Value(), &stored); err != nil {
			log.Crit("Invalid airline record in database", "key", it.Key(), "err", err)
		}
		out = append(out, stored.record())
	}
	if err := it.Error(); err != nil {
		log.Crit("Failed to iterate airline records", "err", err)
	}
	return out
}

type storedPending struct {
	Target []byte
	Votes  uint64
}

// WritePendingVote stores a pending admission tally. Zeroed tallies are
// written too; finalized admissions keep their zeroed entry.
func WritePendingVote(db suretydb.KeyValueWriter, rec airline.PendingVote) {
	data, err := cbor.Marshal(&storedPending{Target: rec.Target.Bytes(), Votes: rec.Votes})
	if err != nil {
		log.Crit("Failed to encode pending vote", "err", err)
	}
	if err := db.Put(pendingKey(rec.Target), data); err != nil {
		log.Crit("Failed to store pending vote", "err", err)
	}
}

// ReadAllPendingVotes retrieves every stored pending admission tally.
func ReadAllPendingVotes(db suretydb.Iteratee) []airline.PendingVote {
	var out []airline.PendingVote
	it := db.NewIterator(pendingPrefix, nil)
	defer it.Release()
	for it.Next() {
		var stored storedPending
		if err := cbor.Unmarshal(it.Value(), &stored); err != nil {
			log.Crit("Invalid pending vote in database", "key", it.Key(), "err", err)
		}
		out = append(out, airline.PendingVote{Target: common.BytesToAddress(stored.Target), Votes: stored.Votes})
	}
	if err := it.Error(); err != nil {
		log.Crit("Failed to iterate pending votes", "err", err)
	}
	return out
}

type storedFlight struct {
	Key       []byte
	Airline   []byte
	Code      string
	Timestamp uint64
	Status    uint8
	Resolved  bool
}

// WriteFlight stores a flight record.
func WriteFlight(db suretydb.KeyValueWriter, f flight.Flight) {
	stored := storedFlight{
		Key:       f.Key.Bytes(),
		Airline:   f.Airline.Bytes(),
		Code:      f.Code,
		Timestamp: f.Timestamp,
		Status:    uint8(f.Status),
		Resolved:  f.Resolved,
	}
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode flight record", "err", err)
	}
	if err := db.Put(flightKey(f.Key), data); err != nil {
		log.Crit("Failed to store flight record", "err", err)
	}
}

// ReadAllFlights retrieves every stored flight record.
func ReadAllFlights(db suretydb.Iteratee) []flight.Flight {
	var out []flight.Flight
	it := db.NewIterator(flightPrefix, nil)
	defer it.Release()
	for it.Next() {
		var stored storedFlight
		if err := cbor.Unmarshal(it.Value(), &stored); err != nil {
			log.Crit("Invalid flight record in database", "key", it.Key(), "err", err)
		}
		out = append(out, flight.Flight{
			Key:       common.BytesToHash(stored.Key),
			Airline:   common.BytesToAddress(stored.Airline),
			Code:      stored.Code,
			Timestamp: stored.Timestamp,
			Status:    flight.Status(stored.Status),
			Resolved:  stored.Resolved,
		})
	}
	if err := it.Error(); err != nil {
		log.Crit("Failed to iterate flight records", "err", err)
	}
	return out
}

type storedClaim struct {
	Key       []byte
	Passenger []byte
	FlightKey []byte
	Premium   uint64
	Paid      bool
	Seq       uint64
}

// WriteClaim stores an insurance claim.
func WriteClaim(db suretydb.KeyValueWriter, c insurance.Claim) {
	stored := storedClaim{
		Key:       c.Key.Bytes(),
		Passenger: c.Passenger.Bytes(),
		FlightKey: c.FlightKey.Bytes(),
		Premium:   c.Premium,
		Paid:      c.Paid,
		Seq:       c.Seq,
	}
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode insurance claim", "err", err)
	}
	if err := db.Put(claimKey(c.Key), data); err != nil {
		log.Crit("Failed to store insurance claim", "err", err)
	}
}

// ReadAllClaims retrieves every stored insurance claim. The order is the
// key order; callers sort by sequence number.
func ReadAllClaims(db suretydb.Iteratee) []insurance.Claim {
	var out []insurance.Claim
	it := db.NewIterator(claimPrefix, nil)
	defer it.Release()
	for it.Next() {
		var stored storedClaim
		if err := cbor.Unmarshal(it.Value(), &stored); err != nil {
			log.Crit("Invalid insurance claim in database", "key", it.Key(), "err", err)
		}
		out = append(out, insurance.Claim{
			Key:       common.BytesToHash(stored.Key),
			Passenger: common.BytesToAddress(stored.Passenger),
			FlightKey: common.BytesToHash(stored.FlightKey),
			Premium:   stored.Premium,
			Paid:      stored.Paid,
			Seq:       stored.Seq,
		})
	}
	if err := it.Error(); err != nil {
		log.Crit("Failed to iterate insurance claims", "err", err)
	}
	return out
}

type storedOracle struct {
	Address []byte
	Indexes []uint8
}

// WriteOracle stores an oracle record.
func WriteOracle(db suretydb.KeyValueWriter, o oracle.Oracle) {
	stored := storedOracle{Address: o.Address.Bytes(), Indexes: o.Indexes[:]}
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode oracle record", "err", err)
	}
	if err := db.Put(oracleKey(o.Address), data); err != nil {
		log.Crit("Failed to store oracle record", "err", err)
	}
}

// ReadAllOracles retrieves every stored oracle record.
func ReadAllOracles(db suretydb.Iteratee) []oracle.Oracle {
	var out []oracle.Oracle
	it := db.NewIterator(oraclePrefix, nil)
	defer it.Release()
	for it.Next() {
		var stored storedOracle
		if err := cbor.Unmarshal(it.Value(), &stored); err != nil {
			log.Crit("Invalid oracle record in database", "key", it.Key(), "err", err)
		}
		if len(stored.Indexes) != params.OracleIndexCount {
			log.Crit("Invalid oracle index count in database", "key", it.Key(), "count", len(stored.Indexes))
		}
		o := oracle.Oracle{Address: common.BytesToAddress(stored.Address)}
		copy(o.Indexes[:], stored.Indexes)
		out = append(out, o)
	}
	if err := it.Error(); err != nil {
		log.Crit("Failed to iterate oracle records", "err", err)
	}
	return out
}

type storedStatusReport struct {
	Status  uint8
	Oracles [][]byte
}

type storedRequest struct {
	Key       []byte
	Index     uint8
	Airline   []byte
	Code      string
	Timestamp uint64
	Requester []byte
	Open      bool
	Reports   []storedStatusReport
}

// WriteRequest stores a status request record, including its report sets.
func WriteRequest(db suretydb.KeyValueWriter, rec oracle.RequestRecord) {
	stored := storedRequest{
		Key:       rec.Key.Bytes(),
		Index:     rec.Index,
		Airline:   rec.Airline.Bytes(),
		Code:      rec.Code,
		Timestamp: rec.Timestamp,
		Requester: rec.Requester.Bytes(),
		Open:      rec.Open,
	}
	for _, rep := range rec.Reports {
		sr := storedStatusReport{Status: uint8(rep.Status)}
		for _, addr := range rep.Oracles {
			sr.Oracles = append(sr.Oracles, addr.Bytes())
		}
		stored.Reports = append(stored.Reports, sr)
	}
	data, err := cbor.Marshal(&stored)
	if err != nil {
		log.Crit("Failed to encode status request", "err", err)
	}
	if err := db.Put(requestKey(rec.Key), data); err != nil {
		log.Crit("Failed to store status request", "err", err)
	}
}

// ReadAllRequests retrieves every stored status request record.
func ReadAllRequests(db suretydb.Iteratee) []oracle.RequestRecord {
	var out []oracle.RequestRecord
	it := db.NewIterator(requestPrefix, nil)
	defer it.Release()
	for it.Next() {
		var stored storedRequest
		if err := cbor.Unmarshal(it.Value(), &stored); err != nil {
			log.Crit("Invalid status request in database", "key", it.Key(), "err", err)
		}
		rec := oracle.RequestRecord{
			Key:       common.BytesToHash(stored.Key),
			Index:     stored.Index,
			Airline:   common.BytesToAddress(stored.Airline),
			Code:      stored.Code,
			Timestamp: stored.Timestamp,
			Requester: common.BytesToAddress(stored.Requester),
			Open:      stored.Open,
		}
		for _, sr := range stored.Reports {
			rep := oracle.StatusReport{Status: flight.Status(sr.Status)}
			for _, addr := range sr.Oracles {
				rep.Oracles = append(rep.Oracles, common.BytesToAddress(addr))
			}
			rec.Reports = append(rec.Reports, rep)
		}
		out = append(out, rec)
	}
	if err := it.Error(); err != nil {
		log.Crit("Failed to iterate status requests", "err", err)
	}
	return out
}
