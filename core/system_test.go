package core

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/surety-network/surety/access"
	"github.com/surety-network/surety/airline"
	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/insurance"
	"github.com/surety-network/surety/ledger"
	"github.com/surety-network/surety/oracle"
	"github.com/surety-network/surety/params"
	"github.com/surety-network/surety/suretydb/memorydb"
)

var (
	tOwner  = common.Address{0xee}
	tOrigin = common.Address{0xdd}
	tFirst  = common.Address{0x01}
)

func tAddr(b byte) common.Address { return common.Address{b} }

func tCtx(caller common.Address, value uint64) TxContext {
	return TxContext{Origin: tOrigin, Caller: caller, Value: value}
}

var errTransferRejected = errors.New("transferor: rejected")

// recordingTransferor tallies outbound value per recipient and can be told
// to reject transfers.
type recordingTransferor struct {
	out  map[common.Address]uint64
	fail bool
}

func newRecordingTransferor() *recordingTransferor {
	return &recordingTransferor{out: make(map[common.Address]uint64)}
}

func (tr *recordingTransferor) Transfer(to common.Address, amount uint64) error {
	if tr.fail {
		return errTransferRejected
	}
	tr.out[to] += amount
	return nil
}

// scriptSource replays a fixed sequence of index draws.
type scriptSource struct {
	draws []uint8
	pos   int
}

func (s *scriptSource) Draw(common.Address) uint8 {
	if s.pos >= len(s.draws) {
		panic("script source exhausted")
	}
	d := s.draws[s.pos]
	s.pos++
	return d
}

// quorumScript assigns index 1 to three oracles in a row and then draws 1
// for the request, so all three can answer it. Extra draws are appended for
// tests that reopen requests.
func quorumScript(extra ...uint8) *scriptSource {
	draws := []uint8{1, 2, 3, 1, 4, 5, 1, 6, 7, 1}
	return &scriptSource{draws: append(draws, extra...)}
}

func newTestSystem(t *testing.T, src oracle.Source) (*System, *recordingTransferor, *memorydb.Database) {
	t.Helper()
	db := memorydb.New()
	tr := newRecordingTransferor()
	sys, err := NewSystem(db, Config{
		Owner:        tOwner,
		Origin:       tOrigin,
		FirstAirline: tFirst,
		Seed:         1,
		Transferor:   tr,
		Source:       src,
	})
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	return sys, tr, db
}

// fundedAirlines funds the bootstrap airline and admits n-1 more through it,
// funding each. Works for n <= 4 where admission is immediate.
func fundedAirlines(t *testing.T, sys *System, n int) []common.Address {
	t.Helper()
	addrs := make([]common.Address, n)
	addrs[0] = tFirst
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee)); err != nil {
		t.Fatalf("fund first airline: %v", err)
	}
	for i := 1; i < n; i++ {
		addrs[i] = tAddr(byte(i + 1))
		admitted, _, err := sys.RegisterAirline(tCtx(tFirst, 0), addrs[i])
		if err != nil {
			t.Fatalf("register airline %d: %v", i, err)
		}
		if !admitted {
			t.Fatalf("airline %d not admitted below threshold", i)
		}
		if err := sys.PayMembershipFund(tCtx(addrs[i], params.JoinFee)); err != nil {
			t.Fatalf("fund airline %d: %v", i, err)
		}
	}
	return addrs
}

var testOracles = []common.Address{{0xa1}, {0xa2}, {0xa3}}

// registerQuorumOracles registers the three test oracles against a quorum
// script, verifying each ends up holding index 1.
func registerQuorumOracles(t *testing.T, sys *System) {
	t.Helper()
	for i, addr := range testOracles {
		idx, err := sys.RegisterOracle(tCtx(addr, params.OracleRegistrationFee))
		if err != nil {
			t.Fatalf("register oracle %d: %v", i, err)
		}
		if idx[0] != 1 {
			t.Fatalf("oracle %d: scripted indexes drifted: %v", i, idx)
		}
	}
}

// reportQuorum submits the same status from all three test oracles and
// checks the last report resolves the request.
func reportQuorum(t *testing.T, sys *System, airlineAddr common.Address, code string, ts uint64, status flight.Status) {
	t.Helper()
	for i, o := range testOracles {
		out, err := sys.SubmitOracleResponse(tCtx(o, 0), 1, airlineAddr, code, ts, status)
		if err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
		if want := i == len(testOracles)-1; out.Resolved != want {
			t.Fatalf("report %d: resolved = %v, want %v", i, out.Resolved, want)
		}
	}
}

func TestBootstrapState(t *testing.T) {
	sys, _, _ := newTestSystem(t, nil)

	if !sys.IsOperational() {
		t.Error("fresh registry not operational")
	}
	if got := sys.Owner(); got != tOwner {
		t.Errorf("owner: want %v, got %v", tOwner, got)
	}
	if got := sys.RegisteredAirlineCount(); got != 1 {
		t.Errorf("airline count: want 1, got %d", got)
	}
	if !sys.AirlineIsRegistered(tFirst) {
		t.Error("bootstrap airline not registered")
	}
	if sys.AirlineIsPaidFund(tFirst) {
		t.Error("bootstrap airline starts funded")
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestNewSystemRequiresTransferor(t *testing.T) {
	if _, err := NewSystem(memorydb.New(), Config{Owner: tOwner, FirstAirline: tFirst}); err == nil {
		t.Fatal("config without transferor accepted")
	}
}

func TestGateRejections(t *testing.T) {
	sys, _, _ := newTestSystem(t, nil)

	foreign := TxContext{Origin: tAddr(0x99), Caller: tFirst, Value: params.JoinFee}
	if err := sys.PayMembershipFund(foreign); err != access.ErrUnauthorized {
		t.Errorf("foreign origin: want ErrUnauthorized, got %v", err)
	}

	if err := sys.SetOperational(TxContext{Caller: tAddr(0x99)}, false); err != access.ErrUnauthorized {
		t.Errorf("non-owner pause: want ErrUnauthorized, got %v", err)
	}
	if err := sys.SetOperational(TxContext{Caller: tOwner}, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if sys.IsOperational() {
		t.Fatal("operational after pause")
	}
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee)); err != access.ErrNotOperational {
		t.Errorf("paused mutation: want ErrNotOperational, got %v", err)
	}

	// Queries stay readable while paused, and the breaker re-enables itself.
	if got := sys.RegisteredAirlineCount(); got != 1 {
		t.Errorf("paused query: want 1, got %d", got)
	}
	if err := sys.SetOperational(TxContext{Caller: tOwner}, true); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee)); err != nil {
		t.Errorf("mutation after unpause: %v", err)
	}
}

func TestAuthorizeRevokeOrigin(t *testing.T) {
	sys, _, _ := newTestSystem(t, nil)
	second := tAddr(0x77)
	through := TxContext{Origin: second, Caller: tFirst, Value: params.JoinFee}

	if err := sys.PayMembershipFund(through); err != access.ErrUnauthorized {
		t.Fatalf("unauthorized origin: want ErrUnauthorized, got %v", err)
	}
	if err := sys.Authorize(TxContext{Caller: tAddr(0x99)}, second); err != access.ErrUnauthorized {
		t.Fatalf("non-owner authorize: want ErrUnauthorized, got %v", err)
	}
	if err := sys.Authorize(TxContext{Caller: tOwner}, second); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := sys.PayMembershipFund(through); err != nil {
		t.Fatalf("authorized origin rejected: %v", err)
	}
	if err := sys.Revoke(TxContext{Caller: tOwner}, second); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	through.Value = 0
	if _, _, err := sys.RegisterAirline(through, tAddr(0x30)); err != access.ErrUnauthorized {
		t.Errorf("revoked origin: want ErrUnauthorized, got %v", err)
	}
}

func TestAdmissionLifecycle(t *testing.T) {
	sys, _, _ := newTestSystem(t, nil)
	airlines := fundedAirlines(t, sys, 4)
	if got := sys.RegisteredAirlineCount(); got != 4 {
		t.Fatalf("airline count: want 4, got %d", got)
	}

	// At the threshold the fifth airline needs floor(4/2) = 2 distinct votes.
	fifth := tAddr(0x05)
	admitted, votes, err := sys.RegisterAirline(tCtx(airlines[0], 0), fifth)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if admitted || votes != 1 {
		t.Fatalf("first vote: admitted=%v votes=%d", admitted, votes)
	}
	if !sys.AirlineIsPending(fifth) {
		t.Error("fifth airline not pending after first vote")
	}

	// A repeated vote from the same airline never moves the tally.
	admitted, votes, err = sys.RegisterAirline(tCtx(airlines[0], 0), fifth)
	if err != nil {
		t.Fatalf("repeat vote: %v", err)
	}
	if admitted || votes != 1 {
		t.Fatalf("repeat vote counted: admitted=%v votes=%d", admitted, votes)
	}

	admitted, votes, err = sys.RegisterAirline(tCtx(airlines[1], 0), fifth)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if !admitted || votes != 2 {
		t.Fatalf("second vote: admitted=%v votes=%d", admitted, votes)
	}
	if got := sys.RegisteredAirlineCount(); got != 5 {
		t.Errorf("airline count: want 5, got %d", got)
	}
	if sys.AirlineIsPending(fifth) {
		t.Error("fifth airline still pending after admission")
	}
	if got := sys.AirlineVotes(fifth); got != 0 {
		t.Errorf("tally not zeroed on admission: %d", got)
	}

	// Admitted but unfunded airlines cannot drive admission.
	if _, _, err := sys.RegisterAirline(tCtx(fifth, 0), tAddr(0x06)); err != airline.ErrNotAuthorizedAirline {
		t.Errorf("unfunded caller: want ErrNotAuthorizedAirline, got %v", err)
	}
	if _, _, err := sys.RegisterAirline(tCtx(airlines[0], 0), airlines[1]); err != airline.ErrAlreadyRegistered {
		t.Errorf("re-admission: want ErrAlreadyRegistered, got %v", err)
	}
}

func TestPayMembershipFund(t *testing.T) {
	sys, tr, _ := newTestSystem(t, nil)

	if err := sys.PayMembershipFund(tCtx(tAddr(0x42), params.JoinFee)); err != airline.ErrNotAuthorizedAirline {
		t.Errorf("unknown airline: want ErrNotAuthorizedAirline, got %v", err)
	}
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee-1)); err != airline.ErrInsufficientPayment {
		t.Errorf("short payment: want ErrInsufficientPayment, got %v", err)
	}

	// Excess value above the join fee comes straight back.
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee+42)); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if got := tr.out[tFirst]; got != 42 {
		t.Errorf("refund: want 42, got %d", got)
	}
	if got := sys.LedgerTotals().AirlineEscrow; got != params.JoinFee {
		t.Errorf("escrow: want %d, got %d", params.JoinFee, got)
	}
	if !sys.AirlineIsPaidFund(tFirst) {
		t.Error("airline not marked funded")
	}
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee)); err != airline.ErrAlreadyFunded {
		t.Errorf("second fund: want ErrAlreadyFunded, got %v", err)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestPayMembershipFundRefundFailure(t *testing.T) {
	sys, tr, _ := newTestSystem(t, nil)
	if err := sys.PayMembershipFund(tCtx(tFirst, params.JoinFee)); err != nil {
		t.Fatalf("fund first airline: %v", err)
	}
	second := tAddr(0x02)
	if _, _, err := sys.RegisterAirline(tCtx(tFirst, 0), second); err != nil {
		t.Fatalf("admit second airline: %v", err)
	}

	// A failed refund rejects the whole payment and leaves no trace.
	tr.fail = true
	if err := sys.PayMembershipFund(tCtx(second, params.JoinFee+5)); err != errTransferRejected {
		t.Fatalf("fund with failing refund: %v", err)
	}
	if sys.AirlineIsPaidFund(second) {
		t.Error("airline marked funded after failed refund")
	}
	if got := sys.LedgerTotals().AirlineEscrow; got != params.JoinFee {
		t.Errorf("escrow moved on failed refund: %d", got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}

	// An exact payment needs no refund and goes through regardless.
	if err := sys.PayMembershipFund(tCtx(second, params.JoinFee)); err != nil {
		t.Fatalf("exact fund: %v", err)
	}
	if !sys.AirlineIsPaidFund(second) {
		t.Error("airline not funded after exact payment")
	}
}

func TestInsurancePayoutLifecycle(t *testing.T) {
	sys, tr, _ := newTestSystem(t, quorumScript())
	fundedAirlines(t, sys, 1)

	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}

	events := make(chan Notification, 64)
	sub := sys.SubscribeNotifications(events)
	defer sub.Unsubscribe()

	passenger := tAddr(0x42)
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, code, ts, params.Sure); err != nil {
		t.Fatalf("buy insurance: %v", err)
	}

	registerQuorumOracles(t, sys)
	index, err := sys.RequestFlightStatus(tCtx(passenger, 0), tFirst, code, ts)
	if err != nil {
		t.Fatalf("request status: %v", err)
	}
	if index != 1 {
		t.Fatalf("scripted request index drifted: %d", index)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateAirline)

	// premium 1.0 unit pays out 1.5 units of credit.
	want := params.Sure + params.Sure/2
	if got := sys.PassengerBalance(passenger); got != want {
		t.Fatalf("credit: want %d, got %d", want, got)
	}
	if st, err := sys.FlightStatus(tFirst, code, ts); err != nil || st != flight.StatusLateAirline {
		t.Errorf("flight status: %v %v", st, err)
	}
	claims := sys.Claims()
	if len(claims) != 1 || !claims[0].Paid {
		t.Fatalf("claim not marked paid: %+v", claims)
	}

	// Withdraw 1.0 unit; 0.5 stays creditable and the transferor saw 1.0.
	if err := sys.Withdraw(tCtx(passenger, 0), params.Sure); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := sys.PassengerBalance(passenger); got != params.Sure/2 {
		t.Errorf("credit after withdraw: want %d, got %d", params.Sure/2, got)
	}
	if got := tr.out[passenger]; got != params.Sure {
		t.Errorf("external transfer: want %d, got %d", params.Sure, got)
	}
	if err := sys.Withdraw(tCtx(passenger, 0), params.Sure); err != ledger.ErrInsufficientCredit {
		t.Errorf("overdraw: want ErrInsufficientCredit, got %v", err)
	}

	// The request closed on quorum; further reports bounce.
	if _, err := sys.SubmitOracleResponse(tCtx(testOracles[0], 0), 1, tFirst, code, ts, flight.StatusLateAirline); err != oracle.ErrNoMatchingRequest {
		t.Errorf("report after close: want ErrNoMatchingRequest, got %v", err)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}

	var resolved, credited bool
	for len(events) > 0 {
		switch ev := (<-events).(type) {
		case FlightStatusResolved:
			resolved = true
			if ev.Status != flight.StatusLateAirline {
				t.Errorf("resolved status: %v", ev.Status)
			}
		case PayoutCredited:
			credited = true
			if ev.Passenger != passenger || ev.Amount != want {
				t.Errorf("payout event: %+v", ev)
			}
		}
	}
	if !resolved || !credited {
		t.Errorf("missing notifications: resolved=%v credited=%v", resolved, credited)
	}
}

func TestBuyInsuranceValidation(t *testing.T) {
	sys, tr, _ := newTestSystem(t, nil)
	airlines := fundedAirlines(t, sys, 2)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}
	passenger := tAddr(0x42)

	if _, err := sys.BuyInsurance(tCtx(airlines[1], params.Sure), tFirst, code, ts, params.Sure); err != insurance.ErrInvalidBuyer {
		t.Errorf("airline as buyer: want ErrInvalidBuyer, got %v", err)
	}
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, "XX0000", ts, params.Sure); err != flight.ErrUnknownFlight {
		t.Errorf("unknown flight: want ErrUnknownFlight, got %v", err)
	}
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, code, ts, 0); err != insurance.ErrInvalidPremium {
		t.Errorf("zero premium: want ErrInvalidPremium, got %v", err)
	}
	if _, err := sys.BuyInsurance(tCtx(passenger, 2*params.Sure), tFirst, code, ts, params.MaxInsurancePremium+1); err != insurance.ErrInvalidPremium {
		t.Errorf("excess premium: want ErrInvalidPremium, got %v", err)
	}
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure-1), tFirst, code, ts, params.Sure); err != insurance.ErrInsufficientPayment {
		t.Errorf("short payment: want ErrInsufficientPayment, got %v", err)
	}

	// Excess over the declared premium comes straight back.
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure+3), tFirst, code, ts, params.Sure); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if got := tr.out[passenger]; got != 3 {
		t.Errorf("refund: want 3, got %d", got)
	}
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, code, ts, params.Sure); err != insurance.ErrDuplicateClaim {
		t.Errorf("second claim: want ErrDuplicateClaim, got %v", err)
	}
	if got := sys.CheckInsuranceAmount(passenger, tFirst, code, ts); got != params.Sure {
		t.Errorf("declared premium: want %d, got %d", params.Sure, got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestResolutionFreezesFlight(t *testing.T) {
	sys, _, _ := newTestSystem(t, quorumScript(1))
	fundedAirlines(t, sys, 1)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}

	// Direct updates overwrite freely before any resolution.
	for _, st := range []flight.Status{flight.StatusOnTime, flight.StatusLateWeather} {
		if err := sys.SetFlightStatus(tCtx(tFirst, 0), code, ts, st); err != nil {
			t.Fatalf("direct update to %v: %v", st, err)
		}
		if got, _ := sys.FlightStatus(tFirst, code, ts); got != st {
			t.Fatalf("status: want %v, got %v", st, got)
		}
	}

	registerQuorumOracles(t, sys)
	if _, err := sys.RequestFlightStatus(tCtx(tFirst, 0), tFirst, code, ts); err != nil {
		t.Fatalf("request status: %v", err)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateAirline)

	// The quorum verdict freezes the flight against direct updates.
	if err := sys.SetFlightStatus(tCtx(tFirst, 0), code, ts, flight.StatusOnTime); err != flight.ErrStatusFinal {
		t.Errorf("direct update after resolution: want ErrStatusFinal, got %v", err)
	}
	f, err := sys.FlightOf(tFirst, code, ts)
	if err != nil || !f.Resolved || f.Status != flight.StatusLateAirline {
		t.Errorf("flight after resolution: %+v %v", f, err)
	}

	// A fresh request on the frozen flight can reach quorum again; the
	// repeat verdict is ignored and the original status stands.
	if _, err := sys.RequestFlightStatus(tCtx(tFirst, 0), tFirst, code, ts); err != nil {
		t.Fatalf("reopen request: %v", err)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateWeather)
	if got, _ := sys.FlightStatus(tFirst, code, ts); got != flight.StatusLateAirline {
		t.Errorf("frozen status changed by repeat quorum: %v", got)
	}
}

func TestRepeatQuorumDoesNotDoublePay(t *testing.T) {
	sys, _, _ := newTestSystem(t, quorumScript(1))
	fundedAirlines(t, sys, 1)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}
	passenger := tAddr(0x42)
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, code, ts, params.Sure); err != nil {
		t.Fatalf("buy insurance: %v", err)
	}
	registerQuorumOracles(t, sys)
	if _, err := sys.RequestFlightStatus(tCtx(passenger, 0), tFirst, code, ts); err != nil {
		t.Fatalf("request status: %v", err)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateAirline)

	want := params.Sure + params.Sure/2
	if got := sys.PassengerBalance(passenger); got != want {
		t.Fatalf("credit: want %d, got %d", want, got)
	}

	if _, err := sys.RequestFlightStatus(tCtx(passenger, 0), tFirst, code, ts); err != nil {
		t.Fatalf("reopen request: %v", err)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateAirline)
	if got := sys.PassengerBalance(passenger); got != want {
		t.Errorf("repeat quorum double paid: want %d, got %d", want, got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestPayoutSkipsWhenBackingExhausted(t *testing.T) {
	sys, _, _ := newTestSystem(t, quorumScript())
	fundedAirlines(t, sys, 1)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}

	// 21 claims against 10 units of escrow: backing is 31, payouts want
	// 31.5, so the last buyer's payout cannot be covered.
	const buyers = 21
	for i := 0; i < buyers; i++ {
		p := tAddr(byte(0x30 + i))
		if _, err := sys.BuyInsurance(tCtx(p, params.Sure), tFirst, code, ts, params.Sure); err != nil {
			t.Fatalf("buy %d: %v", i, err)
		}
	}

	registerQuorumOracles(t, sys)
	if _, err := sys.RequestFlightStatus(tCtx(tAddr(0x30), 0), tFirst, code, ts); err != nil {
		t.Fatalf("request status: %v", err)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateAirline)

	var paid, unpaid int
	for _, c := range sys.Claims() {
		if c.Paid {
			paid++
		} else {
			unpaid++
		}
	}
	if paid != buyers-1 || unpaid != 1 {
		t.Fatalf("payouts: paid=%d unpaid=%d", paid, unpaid)
	}

	// Claims pay in purchase order, so exactly the last buyer is skipped.
	last := tAddr(byte(0x30 + buyers - 1))
	if got := sys.PassengerBalance(last); got != 0 {
		t.Errorf("skipped buyer credited: %d", got)
	}
	if got := sys.PassengerBalance(tAddr(0x30)); got != params.Sure+params.Sure/2 {
		t.Errorf("first buyer credit: %d", got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestWithdrawTransferFailureRestoresCredit(t *testing.T) {
	sys, tr, _ := newTestSystem(t, quorumScript())
	fundedAirlines(t, sys, 1)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}
	passenger := tAddr(0x42)
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, code, ts, params.Sure); err != nil {
		t.Fatalf("buy insurance: %v", err)
	}
	registerQuorumOracles(t, sys)
	if _, err := sys.RequestFlightStatus(tCtx(passenger, 0), tFirst, code, ts); err != nil {
		t.Fatalf("request status: %v", err)
	}
	reportQuorum(t, sys, tFirst, code, ts, flight.StatusLateAirline)
	want := params.Sure + params.Sure/2

	tr.fail = true
	if err := sys.Withdraw(tCtx(passenger, 0), params.Sure); err != errTransferRejected {
		t.Fatalf("withdraw with failing transferor: %v", err)
	}
	if got := sys.PassengerBalance(passenger); got != want {
		t.Errorf("credit not restored: want %d, got %d", want, got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation after failed transfer: %v", err)
	}

	tr.fail = false
	if err := sys.Withdraw(tCtx(passenger, 0), params.Sure); err != nil {
		t.Fatalf("retry withdraw: %v", err)
	}
	if got := sys.PassengerBalance(passenger); got != params.Sure/2 {
		t.Errorf("credit after retry: want %d, got %d", params.Sure/2, got)
	}
}

func TestOracleEndpointValidation(t *testing.T) {
	sys, _, _ := newTestSystem(t, quorumScript())
	fundedAirlines(t, sys, 1)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}

	if _, err := sys.RegisterOracle(tCtx(tAddr(0xa1), params.OracleRegistrationFee-1)); err != oracle.ErrInsufficientPayment {
		t.Errorf("cheap registration: want ErrInsufficientPayment, got %v", err)
	}
	if _, err := sys.GetMyIndexes(tCtx(tAddr(0xa1), 0)); err != oracle.ErrNotRegistered {
		t.Errorf("indexes of stranger: want ErrNotRegistered, got %v", err)
	}
	if _, err := sys.RequestFlightStatus(tCtx(tAddr(0x42), 0), tFirst, "XX0000", ts); err != flight.ErrUnknownFlight {
		t.Errorf("request on unknown flight: want ErrUnknownFlight, got %v", err)
	}

	registerQuorumOracles(t, sys)
	if _, err := sys.RegisterOracle(tCtx(testOracles[0], params.OracleRegistrationFee)); err != oracle.ErrAlreadyRegistered {
		t.Errorf("re-registration: want ErrAlreadyRegistered, got %v", err)
	}
	idx, err := sys.GetMyIndexes(tCtx(testOracles[0], 0))
	if err != nil || idx != [params.OracleIndexCount]uint8{1, 2, 3} {
		t.Errorf("indexes: %v %v", idx, err)
	}

	if _, err := sys.RequestFlightStatus(tCtx(tAddr(0x42), 0), tFirst, code, ts); err != nil {
		t.Fatalf("request status: %v", err)
	}
	if _, err := sys.SubmitOracleResponse(tCtx(testOracles[0], 0), 1, tFirst, code, ts, flight.Status(7)); err != flight.ErrInvalidStatus {
		t.Errorf("junk status code: want ErrInvalidStatus, got %v", err)
	}
	if _, err := sys.SubmitOracleResponse(tCtx(testOracles[0], 0), 4, tFirst, code, ts, flight.StatusOnTime); err != oracle.ErrIndexMismatch {
		t.Errorf("foreign index: want ErrIndexMismatch, got %v", err)
	}
	out, err := sys.SubmitOracleResponse(tCtx(testOracles[0], 0), 1, tFirst, code, ts, flight.StatusOnTime)
	if err != nil || out.Reports != 1 {
		t.Fatalf("first report: %+v %v", out, err)
	}
	out, err = sys.SubmitOracleResponse(tCtx(testOracles[0], 0), 1, tFirst, code, ts, flight.StatusOnTime)
	if err != nil || !out.Duplicate {
		t.Errorf("repeat report not flagged duplicate: %+v %v", out, err)
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	db := memorydb.New()
	tr := newRecordingTransferor()
	cfg := Config{
		Owner:        tOwner,
		Origin:       tOrigin,
		FirstAirline: tFirst,
		Transferor:   tr,
		Source:       quorumScript(),
	}
	sys, err := NewSystem(db, cfg)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}

	airlines := fundedAirlines(t, sys, 4)
	fifth := tAddr(0x05)
	if _, _, err := sys.RegisterAirline(tCtx(airlines[0], 0), fifth); err != nil {
		t.Fatalf("vote: %v", err)
	}

	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}
	passenger := tAddr(0x42)
	if _, err := sys.BuyInsurance(tCtx(passenger, params.Sure), tFirst, code, ts, params.Sure); err != nil {
		t.Fatalf("buy insurance: %v", err)
	}
	registerQuorumOracles(t, sys)
	if _, err := sys.RequestFlightStatus(tCtx(passenger, 0), tFirst, code, ts); err != nil {
		t.Fatalf("request status: %v", err)
	}
	// Two of three reports land before the restart.
	for _, o := range testOracles[:2] {
		if _, err := sys.SubmitOracleResponse(tCtx(o, 0), 1, tFirst, code, ts, flight.StatusLateAirline); err != nil {
			t.Fatalf("report: %v", err)
		}
	}
	before := sys.LedgerTotals()

	// Reopen the same database. The script is spent; no further draws may
	// happen during load.
	cfg.Source = &scriptSource{}
	restored, err := NewSystem(db, cfg)
	if err != nil {
		t.Fatalf("reopen system: %v", err)
	}

	if got := restored.RegisteredAirlineCount(); got != 4 {
		t.Errorf("airline count: want 4, got %d", got)
	}
	if !restored.AirlineIsPending(fifth) || restored.AirlineVotes(fifth) != 1 {
		t.Errorf("pending vote lost: pending=%v votes=%d", restored.AirlineIsPending(fifth), restored.AirlineVotes(fifth))
	}
	if got := restored.LedgerTotals(); got != before {
		t.Errorf("ledger diverged: %+v vs %+v", got, before)
	}
	if got := restored.CheckInsuranceAmount(passenger, tFirst, code, ts); got != params.Sure {
		t.Errorf("claim lost: premium %d", got)
	}
	idx, err := restored.GetMyIndexes(tCtx(testOracles[0], 0))
	if err != nil || idx != [params.OracleIndexCount]uint8{1, 2, 3} {
		t.Errorf("oracle indexes lost: %v %v", idx, err)
	}

	// Voter dedup survives the restart.
	if _, votes, err := restored.RegisterAirline(tCtx(airlines[0], 0), fifth); err != nil || votes != 1 {
		t.Errorf("repeat vote after restart: votes=%d err=%v", votes, err)
	}

	// So does the report set: a repeat report is still a duplicate, and the
	// missing third report completes the quorum.
	out, err := restored.SubmitOracleResponse(tCtx(testOracles[0], 0), 1, tFirst, code, ts, flight.StatusLateAirline)
	if err != nil || !out.Duplicate {
		t.Fatalf("repeat report after restart: %+v %v", out, err)
	}
	out, err = restored.SubmitOracleResponse(tCtx(testOracles[2], 0), 1, tFirst, code, ts, flight.StatusLateAirline)
	if err != nil || !out.Resolved {
		t.Fatalf("deciding report after restart: %+v %v", out, err)
	}
	if got := restored.PassengerBalance(passenger); got != params.Sure+params.Sure/2 {
		t.Errorf("payout after restart: %d", got)
	}
	if err := restored.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestSeededEntropySurvivesRestart(t *testing.T) {
	db := memorydb.New()
	tr := newRecordingTransferor()
	cfg := Config{
		Owner:        tOwner,
		Origin:       tOrigin,
		FirstAirline: tFirst,
		Seed:         7,
		Transferor:   tr,
	}
	sys, err := NewSystem(db, cfg)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	first := tAddr(0xa1)
	firstIdx, err := sys.RegisterOracle(tCtx(first, params.OracleRegistrationFee))
	if err != nil {
		t.Fatalf("register oracle: %v", err)
	}

	restored, err := NewSystem(db, cfg)
	if err != nil {
		t.Fatalf("reopen system: %v", err)
	}
	if idx, err := restored.GetMyIndexes(tCtx(first, 0)); err != nil || idx != firstIdx {
		t.Fatalf("indexes lost: %v %v", idx, err)
	}

	// The restored nonce continues the seeded draw sequence exactly where
	// the first process left off: a model registry replaying both
	// registrations from scratch predicts the second oracle's indexes.
	model := oracle.NewRegistry(oracle.NewSeedSource(7))
	if _, err := model.Register(first, params.OracleRegistrationFee); err != nil {
		t.Fatalf("model register: %v", err)
	}
	second := tAddr(0xa2)
	want, err := model.Register(second, params.OracleRegistrationFee)
	if err != nil {
		t.Fatalf("model register: %v", err)
	}
	got, err := restored.RegisterOracle(tCtx(second, params.OracleRegistrationFee))
	if err != nil {
		t.Fatalf("register second oracle: %v", err)
	}
	if got != want {
		t.Errorf("draw sequence diverged after restart: want %v, got %v", want, got)
	}
}

func TestConcurrentPurchasesSerialize(t *testing.T) {
	sys, _, _ := newTestSystem(t, nil)
	fundedAirlines(t, sys, 1)
	const code, ts = "ND1309", uint64(1700000000)
	if _, err := sys.RegisterFlight(tCtx(tFirst, 0), code, ts); err != nil {
		t.Fatalf("register flight: %v", err)
	}

	const buyers = 16
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		p := tAddr(byte(0x40 + i))
		g.Go(func() error {
			_, err := sys.BuyInsurance(tCtx(p, params.Sure), tFirst, code, ts, params.Sure)
			return err
		})
	}

	// Two racing purchases from the same passenger: exactly one wins.
	dup := tAddr(0xb0)
	var dupErrs [2]error
	for i := 0; i < len(dupErrs); i++ {
		i := i
		g.Go(func() error {
			_, dupErrs[i] = sys.BuyInsurance(tCtx(dup, params.Sure), tFirst, code, ts, params.Sure)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent purchase: %v", err)
	}

	var won, lost int
	for _, err := range dupErrs {
		switch err {
		case nil:
			won++
		case insurance.ErrDuplicateClaim:
			lost++
		default:
			t.Errorf("unexpected duplicate race error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Errorf("duplicate race: won=%d lost=%d", won, lost)
	}
	if got := len(sys.Claims()); got != buyers+1 {
		t.Errorf("claims: want %d, got %d", buyers+1, got)
	}
	if got := sys.LedgerTotals().InsurancePool; got != uint64(buyers+1)*params.Sure {
		t.Errorf("pool: want %d, got %d", uint64(buyers+1)*params.Sure, got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}
