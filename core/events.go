package core

import (
	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/flight"
	"github.com/surety-network/surety/params"
)

// Notification is a registry event delivered on the system feed. Kind
// returns the stable name consumers subscribe on.
type Notification interface {
	Kind() string
}

// AirlineAdmitted fires when an airline finishes admission, whether
// immediately or by vote.
type AirlineAdmitted struct {
	Airline common.Address `json:"airline"`
	Votes   uint64         `json:"votes"`
	Count   uint64         `json:"count"`
}

func (AirlineAdmitted) Kind() string { return "airline-admitted" }

// AirlineFunded fires when an airline pays its membership fund.
type AirlineFunded struct {
	Airline  common.Address `json:"airline"`
	Escrowed uint64         `json:"escrowed"`
}

func (AirlineFunded) Kind() string { return "airline-funded" }

// FlightRegistered fires when an airline registers a flight.
type FlightRegistered struct {
	Key       common.Hash    `json:"key"`
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp uint64         `json:"timestamp"`
}

func (FlightRegistered) Kind() string { return "flight-registered" }

// FlightStatusResolved fires when oracle consensus fixes a flight status.
type FlightStatusResolved struct {
	Key    common.Hash   `json:"key"`
	Status flight.Status `json:"status"`
}

func (FlightStatusResolved) Kind() string { return "flight-status-resolved" }

// StatusRequestOpened fires when a status fetch is requested. Oracles
// holding the index are expected to respond.
type StatusRequestOpened struct {
	Key       common.Hash    `json:"key"`
	Index     uint8          `json:"index"`
	Airline   common.Address `json:"airline"`
	Code      string         `json:"code"`
	Timestamp uint64         `json:"timestamp"`
}

func (StatusRequestOpened) Kind() string { return "status-request-opened" }

// OracleReportReceived fires for every accepted oracle response.
type OracleReportReceived struct {
	Key      common.Hash    `json:"key"`
	Oracle   common.Address `json:"oracle"`
	Status   flight.Status  `json:"status"`
	Reports  int            `json:"reports"`
	Resolved bool           `json:"resolved"`
}

func (OracleReportReceived) Kind() string { return "oracle-report-received" }

// OracleRegistered fires when a new oracle joins.
type OracleRegistered struct {
	Oracle  common.Address                 `json:"oracle"`
	Indexes [params.OracleIndexCount]uint8 `json:"indexes"`
}

func (OracleRegistered) Kind() string { return "oracle-registered" }

// InsurancePurchased fires when a passenger buys a claim.
type InsurancePurchased struct {
	ClaimKey  common.Hash    `json:"claimKey"`
	Passenger common.Address `json:"passenger"`
	FlightKey common.Hash    `json:"flightKey"`
	Premium   uint64         `json:"premium"`
}

func (InsurancePurchased) Kind() string { return "insurance-purchased" }

// PayoutCredited fires when a delay payout lands in a passenger credit.
type PayoutCredited struct {
	Passenger common.Address `json:"passenger"`
	FlightKey common.Hash    `json:"flightKey"`
	Amount    uint64         `json:"amount"`
}

func (PayoutCredited) Kind() string { return "payout-credited" }

// CreditWithdrawn fires when a passenger withdraws credit.
type CreditWithdrawn struct {
	Passenger common.Address `json:"passenger"`
	Amount    uint64         `json:"amount"`
}

func (CreditWithdrawn) Kind() string { return "credit-withdrawn" }
