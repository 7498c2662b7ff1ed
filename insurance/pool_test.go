package insurance

import (
	"errors"
	"testing"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/params"
)

func tAddr(b byte) common.Address { return common.Address{b} }

func tFlight(b byte) common.Hash { return common.Hash{b} }

func TestPayoutRoundsDown(t *testing.T) {
	cases := []struct{ premium, want uint64 }{
		{1, 1},
		{2, 3},
		{5, 7},
		{params.Sure, params.Sure + params.Sure/2},
	}
	for _, c := range cases {
		if got := Payout(c.premium); got != c.want {
			t.Errorf("Payout(%d): want %d, got %d", c.premium, c.want, got)
		}
	}
}

func TestBuy(t *testing.T) {
	p := NewPool()
	passenger := tAddr(0x01)
	fk := tFlight(0xaa)

	if _, err := p.Buy(passenger, fk, 0); err != ErrInvalidPremium {
		t.Errorf("zero premium: want ErrInvalidPremium, got %v", err)
	}
	if _, err := p.Buy(passenger, fk, params.MaxInsurancePremium+1); err != ErrInvalidPremium {
		t.Errorf("over cap: want ErrInvalidPremium, got %v", err)
	}

	key, err := p.Buy(passenger, fk, 100)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if key != ClaimKey(passenger, fk) {
		t.Errorf("claim key mismatch")
	}
	c, ok := p.ClaimOf(passenger, fk)
	if !ok || c.Premium != 100 || c.Paid {
		t.Fatalf("stored claim: %+v (ok=%t)", c, ok)
	}

	// A second purchase fails and never overwrites the stored premium.
	if _, err := p.Buy(passenger, fk, 500); err != ErrDuplicateClaim {
		t.Errorf("duplicate: want ErrDuplicateClaim, got %v", err)
	}
	if c, _ := p.ClaimOf(passenger, fk); c.Premium != 100 {
		t.Errorf("duplicate purchase overwrote premium: %d", c.Premium)
	}

	// The same passenger may insure a different flight.
	if _, err := p.Buy(passenger, tFlight(0xbb), 100); err != nil {
		t.Errorf("second flight: %v", err)
	}
}

func TestResolveDelay(t *testing.T) {
	p := NewPool()
	fk := tFlight(0xaa)
	p.Buy(tAddr(0x01), fk, 100)
	p.Buy(tAddr(0x02), fk, 7)
	p.Buy(tAddr(0x03), tFlight(0xbb), 100) // other flight, untouched

	credited := make(map[common.Address]uint64)
	credit := func(passenger common.Address, amount uint64) error {
		credited[passenger] += amount
		return nil
	}

	paid, skipped := p.ResolveDelay(fk, credit)
	if len(paid) != 2 || len(skipped) != 0 {
		t.Fatalf("resolve: paid=%d skipped=%d", len(paid), len(skipped))
	}
	if credited[tAddr(0x01)] != 150 || credited[tAddr(0x02)] != 10 {
		t.Errorf("credits: %v", credited)
	}
	if len(credited) != 2 {
		t.Errorf("claim on another flight was credited: %v", credited)
	}

	// Re-resolution never double credits.
	paid, skipped = p.ResolveDelay(fk, credit)
	if len(paid) != 0 || len(skipped) != 0 {
		t.Errorf("second resolve: paid=%d skipped=%d", len(paid), len(skipped))
	}
	if credited[tAddr(0x01)] != 150 {
		t.Errorf("double credit: %d", credited[tAddr(0x01)])
	}
}

func TestResolveDelaySkipsFailedCredit(t *testing.T) {
	p := NewPool()
	fk := tFlight(0xaa)
	p.Buy(tAddr(0x01), fk, 100)
	p.Buy(tAddr(0x02), fk, 100)

	errShort := errors.New("short")
	failFirst := func(passenger common.Address, amount uint64) error {
		if passenger == tAddr(0x01) {
			return errShort
		}
		return nil
	}

	paid, skipped := p.ResolveDelay(fk, failFirst)
	if len(paid) != 1 || len(skipped) != 1 {
		t.Fatalf("resolve: paid=%d skipped=%d", len(paid), len(skipped))
	}
	if skipped[0].Passenger != tAddr(0x01) || paid[0].Passenger != tAddr(0x02) {
		t.Errorf("wrong claims in outcome: paid=%x skipped=%x", paid[0].Passenger, skipped[0].Passenger)
	}
	one, _ := p.ClaimOf(tAddr(0x01), fk)
	two, _ := p.ClaimOf(tAddr(0x02), fk)
	if one.Paid || !two.Paid {
		t.Errorf("paid flags: one=%t two=%t", one.Paid, two.Paid)
	}

	// The skipped claim stays payable.
	paid, skipped = p.ResolveDelay(fk, func(common.Address, uint64) error { return nil })
	if len(paid) != 1 || len(skipped) != 0 {
		t.Errorf("retry: paid=%d skipped=%d", len(paid), len(skipped))
	}
	if one, _ := p.ClaimOf(tAddr(0x01), fk); !one.Paid {
		t.Errorf("retried claim still unpaid")
	}
}

func TestRecordsKeepPurchaseOrder(t *testing.T) {
	p := NewPool()
	fk := tFlight(0xaa)
	p.Buy(tAddr(0x03), fk, 1)
	p.Buy(tAddr(0x01), fk, 2)
	p.Buy(tAddr(0x02), tFlight(0xbb), 3)

	records := p.Records()
	if len(records) != 3 {
		t.Fatalf("records: want 3, got %d", len(records))
	}
	wantOrder := []common.Address{tAddr(0x03), tAddr(0x01), tAddr(0x02)}
	for i, want := range wantOrder {
		if records[i].Passenger != want || records[i].Seq != uint64(i) {
			t.Fatalf("record %d out of purchase order: %+v", i, records[i])
		}
	}

	// Load accepts records in any order and rebuilds the purchase order.
	shuffled := []Claim{records[2], records[0], records[1]}
	restored := NewPool()
	restored.Load(shuffled)

	var seen []common.Address
	restored.ResolveDelay(fk, func(passenger common.Address, amount uint64) error {
		seen = append(seen, passenger)
		return nil
	})
	if len(seen) != 2 || seen[0] != tAddr(0x03) || seen[1] != tAddr(0x01) {
		t.Errorf("restored payout order: %v", seen)
	}

	// New purchases continue the sequence.
	restored.Buy(tAddr(0x04), fk, 5)
	c, _ := restored.ClaimOf(tAddr(0x04), fk)
	if c.Seq != 3 {
		t.Errorf("continued seq: want 3, got %d", c.Seq)
	}
}
