package insurance

import (
	"sort"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/params"
)

// CreditFunc moves a payout from the pool to a passenger credit.
type CreditFunc func(passenger common.Address, amount uint64) error

// Pool is the in-memory claim index. Claims carry purchase sequence
// numbers so payout runs and listings stay deterministic across restarts.
// Not safe for concurrent use; the owning system serializes access.
type Pool struct {
	claims   map[common.Hash]*Claim
	byFlight map[common.Hash][]common.Hash
	nextSeq  uint64
}

func NewPool() *Pool {
	return &Pool{
		claims:   make(map[common.Hash]*Claim),
		byFlight: make(map[common.Hash][]common.Hash),
	}
}

// Buy opens a claim for the passenger on the flight. The declared premium
// must be positive and at most MaxInsurancePremium, and a passenger holds
// at most one claim per flight. Buyer eligibility and payment coverage are
// checked by the system.
func (p *Pool) Buy(passenger common.Address, flightKey common.Hash, premium uint64) (common.Hash, error) {
	if premium == 0 || premium > params.MaxInsurancePremium {
		return common.Hash{}, ErrInvalidPremium
	}
	key := ClaimKey(passenger, flightKey)
	if _, ok := p.claims[key]; ok {
		return common.Hash{}, ErrDuplicateClaim
	}
	p.claims[key] = &Claim{
		Key:       key,
		Passenger: passenger,
		FlightKey: flightKey,
		Premium:   premium,
		Seq:       p.nextSeq,
	}
	p.byFlight[flightKey] = append(p.byFlight[flightKey], key)
	p.nextSeq++
	return key, nil
}

// ResolveDelay credits every unpaid claim on the flight with the delay
// payout, in purchase order. A claim whose credit fails is skipped and
// stays payable; the others proceed. Paid claims are never credited twice.
func (p *Pool) ResolveDelay(flightKey common.Hash, credit CreditFunc) (paid, skipped []Claim) {
	for _, key := range p.byFlight[flightKey] {
		c := p.claims[key]
		if c.Paid {
			continue
		}
		if err := credit(c.Passenger, Payout(c.Premium)); err != nil {
			skipped = append(skipped, *c)
			continue
		}
		c.Paid = true
		paid = append(paid, *c)
	}
	return paid, skipped
}

// ClaimOf returns a copy of the passenger's claim on the flight.
func (p *Pool) ClaimOf(passenger common.Address, flightKey common.Hash) (Claim, bool) {
	c, ok := p.claims[ClaimKey(passenger, flightKey)]
	if !ok {
		return Claim{}, false
	}
	return *c, true
}

// ClaimsOn returns the claims on a flight in purchase order.
func (p *Pool) ClaimsOn(flightKey common.Hash) []Claim {
	keys := p.byFlight[flightKey]
	out := make([]Claim, 0, len(keys))
	for _, key := range keys {
		out = append(out, *p.claims[key])
	}
	return out
}

// Count returns the number of claims in the pool.
func (p *Pool) Count() int { return len(p.claims) }

// Records returns all claims in purchase order.
func (p *Pool) Records() []Claim {
	out := make([]Claim, 0, len(p.claims))
	for _, c := range p.claims {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Load replaces the pool contents with previously recorded claims, in any
// order.
func (p *Pool) Load(claims []Claim) {
	sorted := make([]Claim, len(claims))
	copy(sorted, claims)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	p.claims = make(map[common.Hash]*Claim, len(sorted))
	p.byFlight = make(map[common.Hash][]common.Hash)
	p.nextSeq = 0
	for _, c := range sorted {
		stored := c
		p.claims[c.Key] = &stored
		p.byFlight[c.FlightKey] = append(p.byFlight[c.FlightKey], c.Key)
		if c.Seq >= p.nextSeq {
			p.nextSeq = c.Seq + 1
		}
	}
}
