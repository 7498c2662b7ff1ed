// Package core assembles the registry state machines behind a single
// serialized system facade backed by a key-value store.
package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/surety-network/surety/access"
	"github.com/surety-network/surety/airline"
	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/core/rawdb"
	"github.com/surety-network/surety/event"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/insurance"
	"github.com/surety-network/surety/ledger"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/metrics"
	"github.com/surety-network/surety/oracle"
	"github.com/surety-network/surety/params"
	"github.com/surety-network/surety/suretydb"
)

// Config carries the bootstrap identities of a fresh registry. On a
// database that is already bootstrapped only Transferor and Source are
// consulted.
type Config struct {
	Owner        common.Address
	Origin       common.Address // calling surface authorized at bootstrap
	FirstAirline common.Address
	Seed         uint64 // oracle entropy seed; 0 draws a random one

	Transferor ledger.Transferor
	Source     oracle.Source // nil selects the seeded production source
}

// TxContext identifies the surface and the account behind an operation
// and the value attached to it.
type TxContext struct {
	Origin common.Address
	Caller common.Address
	Value  uint64
}

// System is the serialized execution environment of the registry. Every
// state transition happens under its mutex; notifications are delivered
// after the transition commits.
type System struct {
	db       suretydb.KeyValueStore
	transfer ledger.Transferor

	mu       sync.RWMutex
	access   *access.Controller
	airlines *airline.Registry
	flights  *flight.Registry
	claims   *insurance.Pool
	oracles  *oracle.Registry
	ledger   *ledger.Ledger
	seedSrc  *oracle.SeedSource // nil when Config.Source was injected

	feed event.Feed[Notification]
}

// NewSystem opens the registry over db, bootstrapping it on first use and
// loading the recorded state otherwise.
func NewSystem(db suretydb.KeyValueStore, cfg Config) (*System, error) {
	if cfg.Transferor == nil {
		return nil, errors.New("core: config needs a transferor")
	}
	s := &System{
		db:       db,
		transfer: cfg.Transferor,
		airlines: airline.NewRegistry(),
		flights:  flight.NewRegistry(),
		claims:   insurance.NewPool(),
		ledger:   ledger.New(),
	}
	if rec, ok := rawdb.ReadAccessRecord(db); ok {
		s.loadState(rec, cfg)
	} else {
		s.bootstrap(cfg)
	}
	return s, nil
}

func (s *System) bootstrap(cfg Config) {
	src := cfg.Source
	if src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = randomSeed()
		}
		s.seedSrc = oracle.NewSeedSource(seed)
		src = s.seedSrc
	}
	s.oracles = oracle.NewRegistry(src)
	s.access = access.NewController(cfg.Owner)
	if cfg.Origin != (common.Address{}) {
		s.access.Authorize(cfg.Owner, cfg.Origin)
	}
	s.airlines.Bootstrap(cfg.FirstAirline)

	batch := s.db.NewBatch()
	rawdb.WriteAccessRecord(batch, s.access.Record())
	if rec, ok := s.airlines.RecordOf(cfg.FirstAirline); ok {
		rawdb.WriteAirline(batch, rec)
	}
	rawdb.WriteLedgerRecord(batch, s.ledger.Record())
	s.writeEntropy(batch)
	if err := batch.Write(); err != nil {
		log.Crit("Failed to write bootstrap state", "err", err)
	}
	s.syncGauges()
	log.Info("Registry bootstrapped", "owner", cfg.Owner, "firstAirline", cfg.FirstAirline)
}

func (s *System) loadState(rec access.Record, cfg Config) {
	s.access = access.NewController(rec.Owner)
	s.access.Load(rec)

	src := cfg.Source
	if src == nil {
		seed, nonce, ok := rawdb.ReadEntropy(s.db)
		if !ok {
			log.Crit("Database is missing its entropy record")
		}
		s.seedSrc = oracle.NewSeedSource(seed)
		s.seedSrc.Restore(nonce)
		src = s.seedSrc
	}
	s.oracles = oracle.NewRegistry(src)

	s.airlines.Load(rawdb.ReadAllAirlines(s.db), rawdb.ReadAllPendingVotes(s.db))
	s.flights.Load(rawdb.ReadAllFlights(s.db))
	s.claims.Load(rawdb.ReadAllClaims(s.db))
	s.oracles.Load(rawdb.ReadAllOracles(s.db), rawdb.ReadAllRequests(s.db))
	if lrec, ok := rawdb.ReadLedgerRecord(s.db); ok {
		s.ledger.Load(lrec)
	}
	if err := s.ledger.CheckConservation(); err != nil {
		log.Crit("Loaded ledger violates value conservation", "err", err)
	}
	s.syncGauges()
	log.Info("Registry state loaded",
		"airlines", s.airlines.Count(), "flights", s.flights.Count(),
		"claims", s.claims.Count(), "oracles", s.oracles.Count())
}

func randomSeed() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		log.Crit("Failed to draw entropy seed", "err", err)
	}
	return binary.BigEndian.Uint64(buf[:])
}

// writeEntropy persists the randomness state when the system owns it.
func (s *System) writeEntropy(db suretydb.KeyValueWriter) {
	if s.seedSrc != nil {
		seed, nonce := s.seedSrc.State()
		rawdb.WriteEntropy(db, seed, nonce)
	}
}

func (s *System) gate(ctx TxContext) error {
	return s.access.Gate(ctx.Origin)
}

func (s *System) emit(events []Notification) {
	for _, ev := range events {
		s.feed.Send(ev)
	}
}

func (s *System) syncLedgerGauges() {
	t := s.ledger.Totals()
	metrics.EscrowBalance.Set(float64(t.AirlineEscrow))
	metrics.PoolBalance.Set(float64(t.InsurancePool))
	metrics.OracleFeeBalance.Set(float64(t.OracleFees))
	metrics.CreditBalance.Set(float64(t.Credits))
}

func (s *System) syncGauges() {
	s.syncLedgerGauges()
	metrics.AirlinesRegistered.Set(float64(s.airlines.Count()))
	metrics.OraclesRegistered.Set(float64(s.oracles.Count()))
}

// SubscribeNotifications delivers registry events to ch until the
// subscription is cancelled.
func (s *System) SubscribeNotifications(ch chan<- Notification) event.Subscription {
	return s.feed.Subscribe(ch)
}

// SetOperational flips the operational circuit breaker. Owner only, and
// usable while paused so the breaker can re-enable itself.
func (s *System) SetOperational(ctx TxContext, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.access.SetOperational(ctx.Caller, on); err != nil {
		return err
	}
	rawdb.WriteAccessRecord(s.db, s.access.Record())
	log.Info("Operational flag updated", "operational", on)
	return nil
}

// Authorize grants an origin access to the gated operations. Owner only.
func (s *System) Authorize(ctx TxContext, id common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.access.Authorize(ctx.Caller, id); err != nil {
		return err
	}
	rawdb.WriteAccessRecord(s.db, s.access.Record())
	log.Info("Origin authorized", "id", id)
	return nil
}

// Revoke withdraws an origin's access. Owner only.
func (s *System) Revoke(ctx TxContext, id common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.access.Revoke(ctx.Caller, id); err != nil {
		return err
	}
	rawdb.WriteAccessRecord(s.db, s.access.Record())
	log.Info("Origin revoked", "id", id)
	return nil
}

// RegisterAirline runs one admission step for target on behalf of the
// calling airline and reports whether target is now admitted, along with
// the pending vote count.
func (s *System) RegisterAirline(ctx TxContext, target common.Address) (bool, uint64, error) {
	s.mu.Lock()
	admitted, votes, events, err := s.registerAirline(ctx, target)
	s.mu.Unlock()
	if err != nil {
		return false, 0, err
	}
	s.emit(events)
	return admitted, votes, nil
}

func (s *System) registerAirline(ctx TxContext, target common.Address) (bool, uint64, []Notification, error) {
	if err := s.gate(ctx); err != nil {
		return false, 0, nil, err
	}
	admitted, votes, err := s.airlines.Register(ctx.Caller, target)
	if err != nil {
		return false, 0, nil, err
	}
	batch := s.db.NewBatch()
	if rec, ok := s.airlines.RecordOf(ctx.Caller); ok {
		rawdb.WriteAirline(batch, rec)
	}
	if rec, ok := s.airlines.RecordOf(target); ok {
		rawdb.WriteAirline(batch, rec)
	}
	if !admitted || votes > 0 {
		// A tally entry exists: live while pending, zeroed on admission.
		rawdb.WritePendingVote(batch, airline.PendingVote{Target: target, Votes: s.airlines.Votes(target)})
	}
	if err := batch.Write(); err != nil {
		log.Crit("Failed to persist admission step", "err", err)
	}
	var events []Notification
	if admitted {
		count := s.airlines.Count()
		metrics.AirlinesRegistered.Set(float64(count))
		log.Info("Airline admitted", "airline", target, "votes", votes, "count", count)
		events = append(events, AirlineAdmitted{Airline: target, Votes: votes, Count: count})
	} else {
		log.Debug("Admission vote recorded", "airline", target, "votes", votes)
	}
	return admitted, votes, events, nil
}

// PayMembershipFund escrows the join fee out of the attached value and
// refunds the rest to the calling airline.
func (s *System) PayMembershipFund(ctx TxContext) error {
	s.mu.Lock()
	events, err := s.payMembershipFund(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emit(events)
	return nil
}

func (s *System) payMembershipFund(ctx TxContext) ([]Notification, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	if !s.airlines.IsRegistered(ctx.Caller) {
		return nil, airline.ErrNotAuthorizedAirline
	}
	if s.airlines.IsFunded(ctx.Caller) {
		return nil, airline.ErrAlreadyFunded
	}
	if ctx.Value < params.JoinFee {
		return nil, airline.ErrInsufficientPayment
	}
	// Refund first: the mutations below cannot fail.
	if excess := ctx.Value - params.JoinFee; excess > 0 {
		if err := s.transfer.Transfer(ctx.Caller, excess); err != nil {
			return nil, err
		}
	}
	if _, err := s.airlines.PayFund(ctx.Caller, ctx.Value); err != nil {
		return nil, err
	}
	s.ledger.DepositEscrow(params.JoinFee)

	batch := s.db.NewBatch()
	if rec, ok := s.airlines.RecordOf(ctx.Caller); ok {
		rawdb.WriteAirline(batch, rec)
	}
	rawdb.WriteLedgerRecord(batch, s.ledger.Record())
	if err := batch.Write(); err != nil {
		log.Crit("Failed to persist membership fund", "err", err)
	}
	s.syncLedgerGauges()
	log.Info("Membership fund paid", "airline", ctx.Caller, "escrowed", params.JoinFee, "refunded", ctx.Value-params.JoinFee)
	return []Notification{AirlineFunded{Airline: ctx.Caller, Escrowed: params.JoinFee}}, nil
}

// RegisterFlight adds a flight operated by the calling airline.
func (s *System) RegisterFlight(ctx TxContext, code string, timestamp uint64) (common.Hash, error) {
	s.mu.Lock()
	key, events, err := s.registerFlight(ctx, code, timestamp)
	s.mu.Unlock()
	if err != nil {
		return common.Hash{}, err
	}
	s.emit(events)
	return key, nil
}

func (s *System) registerFlight(ctx TxContext, code string, timestamp uint64) (common.Hash, []Notification, error) {
	if err := s.gate(ctx); err != nil {
		return common.Hash{}, nil, err
	}
	if !s.airlines.IsRegistered(ctx.Caller) {
		return common.Hash{}, nil, airline.ErrNotAuthorizedAirline
	}
	key, err := s.flights.Register(ctx.Caller, code, timestamp)
	if err != nil {
		return common.Hash{}, nil, err
	}
	if f, ok := s.flights.Get(key); ok {
		rawdb.WriteFlight(s.db, f)
	}
	metrics.FlightsRegistered.Inc()
	log.Info("Flight registered", "key", key, "airline", ctx.Caller, "code", code, "timestamp", timestamp)
	return key, []Notification{FlightRegistered{Key: key, Airline: ctx.Caller, Code: code, Timestamp: timestamp}}, nil
}

// SetFlightStatus records a direct status update on a flight the caller
// operates. Updates are free-form until the flight resolves.
func (s *System) SetFlightStatus(ctx TxContext, code string, timestamp uint64, status flight.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate(ctx); err != nil {
		return err
	}
	key := flight.Key(ctx.Caller, code, timestamp)
	if err := s.flights.SetStatus(key, status, ctx.Caller); err != nil {
		return err
	}
	if f, ok := s.flights.Get(key); ok {
		rawdb.WriteFlight(s.db, f)
	}
	log.Info("Flight status updated", "key", key, "status", status)
	return nil
}

// BuyInsurance opens a claim on the flight for the calling passenger,
// escrowing the declared premium and refunding any excess value.
func (s *System) BuyInsurance(ctx TxContext, airlineAddr common.Address, code string, timestamp uint64, amount uint64) (common.Hash, error) {
	s.mu.Lock()
	key, events, err := s.buyInsurance(ctx, airlineAddr, code, timestamp, amount)
	s.mu.Unlock()
	if err != nil {
		return common.Hash{}, err
	}
	s.emit(events)
	return key, nil
}

func (s *System) buyInsurance(ctx TxContext, airlineAddr common.Address, code string, timestamp uint64, amount uint64) (common.Hash, []Notification, error) {
	if err := s.gate(ctx); err != nil {
		return common.Hash{}, nil, err
	}
	if s.airlines.IsRegistered(ctx.Caller) {
		return common.Hash{}, nil, insurance.ErrInvalidBuyer
	}
	flightKey := flight.Key(airlineAddr, code, timestamp)
	if _, ok := s.flights.Get(flightKey); !ok {
		return common.Hash{}, nil, flight.ErrUnknownFlight
	}
	if amount == 0 || amount > params.MaxInsurancePremium {
		return common.Hash{}, nil, insurance.ErrInvalidPremium
	}
	if ctx.Value < amount {
		return common.Hash{}, nil, insurance.ErrInsufficientPayment
	}
	if _, ok := s.claims.ClaimOf(ctx.Caller, flightKey); ok {
		return common.Hash{}, nil, insurance.ErrDuplicateClaim
	}
	// Refund first: the mutations below cannot fail.
	if excess := ctx.Value - amount; excess > 0 {
		if err := s.transfer.Transfer(ctx.Caller, excess); err != nil {
			return common.Hash{}, nil, err
		}
	}
	claimKey, err := s.claims.Buy(ctx.Caller, flightKey, amount)
	if err != nil {
		return common.Hash{}, nil, err
	}
	s.ledger.DepositPool(amount)

	batch := s.db.NewBatch()
	if c, ok := s.claims.ClaimOf(ctx.Caller, flightKey); ok {
		rawdb.WriteClaim(batch, c)
	}
	rawdb.WriteLedgerRecord(batch, s.ledger.Record())
	if err := batch.Write(); err != nil {
		log.Crit("Failed to persist insurance purchase", "err", err)
	}
	s.syncLedgerGauges()
	metrics.InsurancePurchases.Inc()
	log.Info("Insurance purchased", "passenger", ctx.Caller, "flight", flightKey, "premium", amount)
	return claimKey, []Notification{InsurancePurchased{ClaimKey: claimKey, Passenger: ctx.Caller, FlightKey: flightKey, Premium: amount}}, nil
}

// Withdraw moves credited payout value out of the ledger to the caller.
// The credit is debited strictly before the external transfer runs.
func (s *System) Withdraw(ctx TxContext, amount uint64) error {
	s.mu.Lock()
	events, err := s.withdraw(ctx, amount)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emit(events)
	return nil
}

func (s *System) withdraw(ctx TxContext, amount uint64) ([]Notification, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	if err := s.ledger.DebitCredit(ctx.Caller, amount); err != nil {
		return nil, err
	}
	if err := s.transfer.Transfer(ctx.Caller, amount); err != nil {
		s.ledger.RestoreCredit(ctx.Caller, amount)
		return nil, err
	}
	rawdb.WriteLedgerRecord(s.db, s.ledger.Record())
	s.syncLedgerGauges()
	metrics.CreditsWithdrawn.Inc()
	log.Info("Credit withdrawn", "passenger", ctx.Caller, "amount", amount)
	return []Notification{CreditWithdrawn{Passenger: ctx.Caller, Amount: amount}}, nil
}

// RegisterOracle admits the caller as an oracle. The full attached value
// is retained as the registration fee.
func (s *System) RegisterOracle(ctx TxContext) ([params.OracleIndexCount]uint8, error) {
	s.mu.Lock()
	indexes, events, err := s.registerOracle(ctx)
	s.mu.Unlock()
	if err != nil {
		return [params.OracleIndexCount]uint8{}, err
	}
	s.emit(events)
	return indexes, nil
}

func (s *System) registerOracle(ctx TxContext) ([params.OracleIndexCount]uint8, []Notification, error) {
	if err := s.gate(ctx); err != nil {
		return [params.OracleIndexCount]uint8{}, nil, err
	}
	indexes, err := s.oracles.Register(ctx.Caller, ctx.Value)
	if err != nil {
		return [params.OracleIndexCount]uint8{}, nil, err
	}
	s.ledger.DepositOracleFees(ctx.Value)

	batch := s.db.NewBatch()
	rawdb.WriteOracle(batch, oracle.Oracle{Address: ctx.Caller, Indexes: indexes})
	rawdb.WriteLedgerRecord(batch, s.ledger.Record())
	s.writeEntropy(batch)
	if err := batch.Write(); err != nil {
		log.Crit("Failed to persist oracle registration", "err", err)
	}
	metrics.OraclesRegistered.Set(float64(s.oracles.Count()))
	s.syncLedgerGauges()
	log.Info("Oracle registered", "oracle", ctx.Caller, "indexes", indexes)
	return indexes, []Notification{OracleRegistered{Oracle: ctx.Caller, Indexes: indexes}}, nil
}

// GetMyIndexes returns the indexes assigned to the calling oracle.
func (s *System) GetMyIndexes(ctx TxContext) ([params.OracleIndexCount]uint8, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.gate(ctx); err != nil {
		return [params.OracleIndexCount]uint8{}, err
	}
	return s.oracles.Indexes(ctx.Caller)
}

// RequestFlightStatus opens an oracle status request for the flight and
// returns the index oracles must hold to respond.
func (s *System) RequestFlightStatus(ctx TxContext, airlineAddr common.Address, code string, timestamp uint64) (uint8, error) {
	s.mu.Lock()
	index, events, err := s.requestFlightStatus(ctx, airlineAddr, code, timestamp)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	s.emit(events)
	return index, nil
}

func (s *System) requestFlightStatus(ctx TxContext, airlineAddr common.Address, code string, timestamp uint64) (uint8, []Notification, error) {
	if err := s.gate(ctx); err != nil {
		return 0, nil, err
	}
	if _, ok := s.flights.Get(flight.Key(airlineAddr, code, timestamp)); !ok {
		return 0, nil, flight.ErrUnknownFlight
	}
	index, key, err := s.oracles.OpenRequest(ctx.Caller, airlineAddr, code, timestamp)
	if err != nil {
		return 0, nil, err
	}
	batch := s.db.NewBatch()
	if rec, ok := s.oracles.RequestOf(key); ok {
		rawdb.WriteRequest(batch, rec)
	}
	s.writeEntropy(batch)
	if err := batch.Write(); err != nil {
		log.Crit("Failed to persist status request", "err", err)
	}
	metrics.RequestsOpened.Inc()
	log.Info("Status request opened", "key", key, "index", index, "airline", airlineAddr, "code", code)
	return index, []Notification{StatusRequestOpened{Key: key, Index: index, Airline: airlineAddr, Code: code, Timestamp: timestamp}}, nil
}

// SubmitOracleResponse records a status report from the calling oracle
// and, on quorum, resolves the flight and runs the delay payouts.
func (s *System) SubmitOracleResponse(ctx TxContext, index uint8, airlineAddr common.Address, code string, timestamp uint64, status flight.Status) (oracle.Outcome, error) {
	s.mu.Lock()
	out, events, err := s.submitOracleResponse(ctx, index, airlineAddr, code, timestamp, status)
	s.mu.Unlock()
	if err != nil {
		return oracle.Outcome{}, err
	}
	s.emit(events)
	return out, nil
}

func (s *System) submitOracleResponse(ctx TxContext, index uint8, airlineAddr common.Address, code string, timestamp uint64, status flight.Status) (oracle.Outcome, []Notification, error) {
	if err := s.gate(ctx); err != nil {
		return oracle.Outcome{}, nil, err
	}
	if !status.Valid() {
		return oracle.Outcome{}, nil, flight.ErrInvalidStatus
	}
	out, err := s.oracles.SubmitResponse(ctx.Caller, index, airlineAddr, code, timestamp, status)
	if err != nil {
		return oracle.Outcome{}, nil, err
	}
	requestKey := oracle.RequestKey(index, airlineAddr, code, timestamp)
	batch := s.db.NewBatch()
	if rec, ok := s.oracles.RequestOf(requestKey); ok {
		rawdb.WriteRequest(batch, rec)
	}
	var events []Notification
	if !out.Duplicate {
		metrics.OracleReports.Inc()
		log.Debug("Oracle report received", "key", requestKey, "oracle", ctx.Caller, "status", status, "reports", out.Reports)
		events = append(events, OracleReportReceived{Key: requestKey, Oracle: ctx.Caller, Status: status, Reports: out.Reports, Resolved: out.Resolved})
	}
	if out.Resolved {
		events = append(events, s.resolveFlight(batch, airlineAddr, code, timestamp, status)...)
	}
	if err := batch.Write(); err != nil {
		log.Crit("Failed to persist oracle response", "err", err)
	}
	s.syncLedgerGauges()
	return out, events, nil
}

// resolveFlight applies a quorum verdict: freeze the flight, then run the
// delay payouts when the verdict is a Late variant.
func (s *System) resolveFlight(batch suretydb.Batch, airlineAddr common.Address, code string, timestamp uint64, status flight.Status) []Notification {
	flightKey := flight.Key(airlineAddr, code, timestamp)
	switch err := s.flights.Resolve(flightKey, status); err {
	case nil:
	case flight.ErrStatusFinal:
		// A repeat quorum on a frozen flight closes its request without
		// touching the flight or rerunning payouts.
		log.Info("Ignoring repeat resolution", "flight", flightKey, "status", status)
		return nil
	default:
		log.Error("Flight resolution failed", "flight", flightKey, "err", err)
		return nil
	}
	if f, ok := s.flights.Get(flightKey); ok {
		rawdb.WriteFlight(batch, f)
	}
	metrics.FlightsResolved.Inc()
	log.Info("Flight status resolved", "flight", flightKey, "status", status)
	events := []Notification{FlightStatusResolved{Key: flightKey, Status: status}}
	if !status.Delayed() {
		return events
	}

	paid, skipped := s.claims.ResolveDelay(flightKey, func(passenger common.Address, amount uint64) error {
		return s.ledger.PayFromPool(passenger, amount)
	})
	for _, c := range paid {
		amount := insurance.Payout(c.Premium)
		metrics.PayoutsCredited.Inc()
		rawdb.WriteClaim(batch, c)
		events = append(events, PayoutCredited{Passenger: c.Passenger, FlightKey: flightKey, Amount: amount})
	}
	if len(skipped) > 0 {
		metrics.PayoutsSkipped.Add(float64(len(skipped)))
		log.Warn("Delay payouts skipped, pool underfunded", "flight", flightKey, "skipped", len(skipped))
	}
	rawdb.WriteLedgerRecord(batch, s.ledger.Record())
	log.Info("Delay payouts credited", "flight", flightKey, "paid", len(paid), "skipped", len(skipped))
	return events
}

// IsOperational reports whether the registry accepts gated operations.
func (s *System) IsOperational() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access.IsOperational()
}

// Owner returns the registry owner.
func (s *System) Owner() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access.Owner()
}

// RegisteredAirlineCount returns the number of admitted airlines.
func (s *System) RegisteredAirlineCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.Count()
}

// AirlineIsRegistered reports whether id is an admitted airline.
func (s *System) AirlineIsRegistered(id common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.IsRegistered(id)
}

// AirlineIsPaidFund reports whether id has paid its membership fund.
func (s *System) AirlineIsPaidFund(id common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.IsFunded(id)
}

// AirlineIsPending reports whether id has votes but no admission yet.
func (s *System) AirlineIsPending(id common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.IsPending(id)
}

// AirlineVotes returns the pending vote tally for id.
func (s *System) AirlineVotes(id common.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.Votes(id)
}

// FlightStatus returns the status of the identified flight.
func (s *System) FlightStatus(airlineAddr common.Address, code string, timestamp uint64) (flight.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flights.StatusOf(flight.Key(airlineAddr, code, timestamp))
}

// FlightOf returns the full record of the identified flight.
func (s *System) FlightOf(airlineAddr common.Address, code string, timestamp uint64) (flight.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights.Get(flight.Key(airlineAddr, code, timestamp))
	if !ok {
		return flight.Flight{}, flight.ErrUnknownFlight
	}
	return f, nil
}

// CheckInsuranceAmount returns the premium the passenger has declared on
// the identified flight, zero when no claim exists.
func (s *System) CheckInsuranceAmount(passenger, airlineAddr common.Address, code string, timestamp uint64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims.ClaimOf(passenger, flight.Key(airlineAddr, code, timestamp))
	if !ok {
		return 0
	}
	return c.Premium
}

// PassengerBalance returns the withdrawable credit of id.
func (s *System) PassengerBalance(id common.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.CreditOf(id)
}

// AirlineRecord returns the full record of one airline.
func (s *System) AirlineRecord(id common.Address) (airline.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.RecordOf(id)
}

// Airlines returns all airline records ordered by address.
func (s *System) Airlines() []airline.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.Records()
}

// PendingVotes returns all pending admission tallies ordered by target.
func (s *System) PendingVotes() []airline.PendingVote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airlines.PendingVotes()
}

// Flights returns all flight records ordered by key.
func (s *System) Flights() []flight.Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flights.Flights()
}

// Claims returns all insurance claims in purchase order.
func (s *System) Claims() []insurance.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.Records()
}

// Oracles returns all oracle records ordered by address.
func (s *System) Oracles() []oracle.Oracle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oracles.Oracles()
}

// OracleRequests returns all status requests ordered by key.
func (s *System) OracleRequests() []oracle.RequestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oracles.Requests()
}

// LedgerTotals returns the aggregate ledger balances.
func (s *System) LedgerTotals() ledger.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Totals()
}

// CheckConservation verifies that the ledger balances sum to the net
// value accepted by the registry.
func (s *System) CheckConservation() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.CheckConservation()
}
