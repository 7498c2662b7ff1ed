package ledger

import (
	"testing"

	"github.com/surety-network/surety/common"
)

func tAddr(b byte) common.Address { return common.Address{b} }

func TestDepositsAccumulate(t *testing.T) {
	l := New()
	l.DepositEscrow(10)
	l.DepositPool(5)
	l.DepositOracleFees(1)
	l.DepositPool(7)

	got := l.Totals()
	if got.AirlineEscrow != 10 || got.InsurancePool != 12 || got.OracleFees != 1 {
		t.Errorf("totals: %+v", got)
	}
	if got.TotalIn != 23 {
		t.Errorf("totalIn: want 23, got %d", got.TotalIn)
	}
	if err := l.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestPayFromPoolBounds(t *testing.T) {
	l := New()
	l.DepositPool(10)
	p := tAddr(0x01)

	if err := l.PayFromPool(p, 11); err != ErrPoolUnderfunded {
		t.Errorf("overdraw: want ErrPoolUnderfunded, got %v", err)
	}
	if l.CreditOf(p) != 0 || l.Totals().InsurancePool != 10 {
		t.Errorf("failed payout mutated state: credit=%d pool=%d", l.CreditOf(p), l.Totals().InsurancePool)
	}

	if err := l.PayFromPool(p, 10); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if l.CreditOf(p) != 10 || l.Totals().InsurancePool != 0 {
		t.Errorf("after payout: credit=%d pool=%d", l.CreditOf(p), l.Totals().InsurancePool)
	}
	if err := l.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestPayFromPoolDrawsEscrowShortfall(t *testing.T) {
	l := New()
	l.DepositEscrow(4)
	l.DepositPool(10)
	p := tAddr(0x01)

	// 12 exceeds the pool; the remaining 2 come out of escrow.
	if err := l.PayFromPool(p, 12); err != nil {
		t.Fatalf("payout: %v", err)
	}
	got := l.Totals()
	if got.InsurancePool != 0 || got.AirlineEscrow != 2 {
		t.Errorf("after payout: pool=%d escrow=%d", got.InsurancePool, got.AirlineEscrow)
	}
	if l.CreditOf(p) != 12 {
		t.Errorf("credit: want 12, got %d", l.CreditOf(p))
	}

	if err := l.PayFromPool(p, 3); err != ErrPoolUnderfunded {
		t.Errorf("combined overdraw: want ErrPoolUnderfunded, got %v", err)
	}
	if l.CreditOf(p) != 12 || l.Totals().AirlineEscrow != 2 {
		t.Errorf("failed payout mutated state: credit=%d escrow=%d", l.CreditOf(p), l.Totals().AirlineEscrow)
	}
	if err := l.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestDebitCreditBounds(t *testing.T) {
	l := New()
	l.DepositPool(10)
	p := tAddr(0x02)
	if err := l.PayFromPool(p, 10); err != nil {
		t.Fatalf("payout: %v", err)
	}

	if err := l.DebitCredit(p, 11); err != ErrInsufficientCredit {
		t.Errorf("overdraw: want ErrInsufficientCredit, got %v", err)
	}
	if err := l.DebitCredit(p, 4); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if l.CreditOf(p) != 6 {
		t.Errorf("credit: want 6, got %d", l.CreditOf(p))
	}
	if got := l.Totals().TotalOut; got != 4 {
		t.Errorf("totalOut: want 4, got %d", got)
	}
	if err := l.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestRestoreCreditReversesDebit(t *testing.T) {
	l := New()
	l.DepositPool(5)
	p := tAddr(0x03)
	if err := l.PayFromPool(p, 5); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if err := l.DebitCredit(p, 5); err != nil {
		t.Fatalf("debit: %v", err)
	}
	l.RestoreCredit(p, 5)

	if l.CreditOf(p) != 5 {
		t.Errorf("credit: want 5, got %d", l.CreditOf(p))
	}
	if err := l.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	l := New()
	l.DepositEscrow(100)
	l.DepositPool(50)
	l.DepositOracleFees(3)
	for i := byte(5); i > 0; i-- { // insert out of order
		if err := l.PayFromPool(tAddr(i), uint64(i)); err != nil {
			t.Fatalf("payout: %v", err)
		}
	}
	rec := l.Record()

	// Credits come out sorted by passenger address.
	for i := 1; i < len(rec.Credits); i++ {
		if rec.Credits[i-1].Passenger.Hex() >= rec.Credits[i].Passenger.Hex() {
			t.Errorf("credits not sorted at %d", i)
		}
	}

	restored := New()
	restored.Load(rec)
	if restored.Totals() != l.Totals() {
		t.Errorf("totals diverge: %+v vs %+v", restored.Totals(), l.Totals())
	}
	for i := byte(1); i <= 5; i++ {
		if restored.CreditOf(tAddr(i)) != uint64(i) {
			t.Errorf("credit %d: want %d, got %d", i, i, restored.CreditOf(tAddr(i)))
		}
	}
	if err := restored.CheckConservation(); err != nil {
		t.Errorf("conservation after load: %v", err)
	}
}
