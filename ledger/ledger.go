// Package ledger implements the fund ledger: every balance held by the
// registry and the per-passenger credits owed from it. All balance mutation
// goes through the methods below; no other component touches value directly.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/surety-network/surety/common"
)

// Sentinel errors returned by ledger operations.
var (
	ErrInsufficientCredit = errors.New("ledger: insufficient credit")
	ErrPoolUnderfunded    = errors.New("ledger: insurance pool underfunded")
)

// Transferor moves value out of the system to an external party. Callers
// debit the ledger strictly before invoking a transfer, and must not call
// back into the registry during one.
type Transferor interface {
	Transfer(to common.Address, amount uint64) error
}

// Ledger tracks the escrowed pots and passenger credits. It is not safe for
// concurrent use; the owning system serializes access.
type Ledger struct {
	airlineEscrow uint64
	insurancePool uint64
	oracleFees    uint64
	credits       map[common.Address]uint64

	totalIn  uint64 // value accepted into the ledger
	totalOut uint64 // value withdrawn from the ledger
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		credits: make(map[common.Address]uint64),
	}
}

// DepositEscrow accepts an airline membership fund into escrow.
func (l *Ledger) DepositEscrow(amount uint64) {
	l.airlineEscrow += amount
	l.totalIn += amount
}

// DepositPool accepts an insurance premium into the pool.
func (l *Ledger) DepositPool(amount uint64) {
	l.insurancePool += amount
	l.totalIn += amount
}

// DepositOracleFees accepts an oracle registration payment.
func (l *Ledger) DepositOracleFees(amount uint64) {
	l.oracleFees += amount
	l.totalIn += amount
}

// PayFromPool moves amount into the passenger's withdrawable credit, drawing
// from the insurance pool first and covering any shortfall from the airline
// escrow. Membership funds capitalize the pool: premiums alone cannot back a
// 3/2 payout. Fails with ErrPoolUnderfunded when pool and escrow together
// hold less than amount; no balance changes on failure.
func (l *Ledger) PayFromPool(passenger common.Address, amount uint64) error {
	if l.insurancePool+l.airlineEscrow < amount {
		return ErrPoolUnderfunded
	}
	if l.insurancePool >= amount {
		l.insurancePool -= amount
	} else {
		l.airlineEscrow -= amount - l.insurancePool
		l.insurancePool = 0
	}
	l.credits[passenger] += amount
	return nil
}

// DebitCredit removes amount from the passenger's withdrawable credit and
// accounts it as value leaving the system. Fails with ErrInsufficientCredit;
// no balance changes on failure.
func (l *Ledger) DebitCredit(passenger common.Address, amount uint64) error {
	if l.credits[passenger] < amount {
		return ErrInsufficientCredit
	}
	l.credits[passenger] -= amount
	if l.credits[passenger] == 0 {
		delete(l.credits, passenger)
	}
	l.totalOut += amount
	return nil
}

// RestoreCredit reverses a DebitCredit after a failed external transfer.
func (l *Ledger) RestoreCredit(passenger common.Address, amount uint64) {
	l.credits[passenger] += amount
	l.totalOut -= amount
}

// CreditOf returns the withdrawable balance of passenger.
func (l *Ledger) CreditOf(passenger common.Address) uint64 {
	return l.credits[passenger]
}

// Totals is an aggregate snapshot of the ledger balances.
type Totals struct {
	AirlineEscrow uint64
	InsurancePool uint64
	OracleFees    uint64
	Credits       uint64
	TotalIn       uint64
	TotalOut      uint64
}

// Totals returns the aggregate balances.
func (l *Ledger) Totals() Totals {
	var credits uint64
	for _, c := range l.credits {
		credits += c
	}
	return Totals{
		AirlineEscrow: l.airlineEscrow,
		InsurancePool: l.insurancePool,
		OracleFees:    l.oracleFees,
		Credits:       credits,
		TotalIn:       l.totalIn,
		TotalOut:      l.totalOut,
	}
}

// CheckConservation verifies that the tracked balances sum to the net value
// accepted by the ledger.
func (l *Ledger) CheckConservation() error {
	t := l.Totals()
	held := t.AirlineEscrow + t.InsurancePool + t.OracleFees + t.Credits
	if held != t.TotalIn-t.TotalOut {
		return fmt.Errorf("ledger: conservation broken: held %d, net received %d", held, t.TotalIn-t.TotalOut)
	}
	return nil
}

// Credit is one passenger's withdrawable balance in a ledger snapshot.
type Credit struct {
	Passenger common.Address
	Amount    uint64
}

// Record is the persistable snapshot of the ledger. Credits are sorted by
// passenger address ascending.
type Record struct {
	AirlineEscrow uint64
	InsurancePool uint64
	OracleFees    uint64
	TotalIn       uint64
	TotalOut      uint64
	Credits       []Credit
}

// Record returns the persistable snapshot of the ledger.
func (l *Ledger) Record() Record {
	credits := make([]Credit, 0, len(l.credits))
	for p, amount := range l.credits {
		credits = append(credits, Credit{Passenger: p, Amount: amount})
	}
	sort.Slice(credits, func(i, j int) bool {
		return bytes.Compare(credits[i].Passenger[:], credits[j].Passenger[:]) < 0
	})
	return Record{
		AirlineEscrow: l.airlineEscrow,
		InsurancePool: l.insurancePool,
		OracleFees:    l.oracleFees,
		TotalIn:       l.totalIn,
		TotalOut:      l.totalOut,
		Credits:       credits,
	}
}

// Load replaces the ledger state with the contents of rec.
func (l *Ledger) Load(rec Record) {
	l.airlineEscrow = rec.AirlineEscrow
	l.insurancePool = rec.InsurancePool
	l.oracleFees = rec.OracleFees
	l.totalIn = rec.TotalIn
	l.totalOut = rec.TotalOut
	l.credits = make(map[common.Address]uint64, len(rec.Credits))
	for _, c := range rec.Credits {
		if c.Amount > 0 {
			l.credits[c.Passenger] = c.Amount
		}
	}
}
