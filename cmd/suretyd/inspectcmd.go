package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/surety-network/surety/core/rawdb"
	"github.com/surety-network/surety/internal/flags"
	"github.com/surety-network/surety/ledger"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/suretydb/leveldb"
)

var inspectCommand = &cli.Command{
	Action:    inspect,
	Name:      "inspect",
	Usage:     "Display the persisted registry state",
	ArgsUsage: " ",
	Flags:     flags.Merge(nodeFlags),
	Description: `
The inspect command opens the registry database read-only and renders
the airlines, flights, claims, oracles, open requests and the fund
ledger it contains. The ledger conservation check runs as part of it.
`,
}

func inspect(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	if cfg.Node.DataDir == "" {
		return errors.New("inspect requires a data directory")
	}
	db, err := leveldb.New(cfg.Node.DatabaseDir(), cfg.Node.DatabaseCache, cfg.Node.DatabaseHandles, true)
	if err != nil {
		return err
	}
	defer db.Close()

	acc, ok := rawdb.ReadAccessRecord(db)
	if !ok {
		return errors.New("no registry state in database")
	}
	fmt.Println("Owner:      ", acc.Owner.Hex())
	fmt.Println("Operational:", acc.Operational)
	fmt.Println("Origins:    ", len(acc.Origins))

	fmt.Println("\nAirlines:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Airline", "Registered", "Funded", "Votes Cast"})
	for _, a := range rawdb.ReadAllAirlines(db) {
		table.Append([]string{
			a.Address.Hex(),
			strconv.FormatBool(a.Registered),
			strconv.FormatBool(a.Funded),
			strconv.Itoa(len(a.VotesCast)),
		})
	}
	table.Render()

	fmt.Println("\nFlights:")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Airline", "Code", "Timestamp", "Status", "Resolved"})
	for _, f := range rawdb.ReadAllFlights(db) {
		table.Append([]string{
			f.Key.Hex(),
			f.Airline.Hex(),
			f.Code,
			strconv.FormatUint(f.Timestamp, 10),
			f.Status.String(),
			strconv.FormatBool(f.Resolved),
		})
	}
	table.Render()

	fmt.Println("\nClaims:")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Passenger", "Flight Key", "Premium", "Paid"})
	for _, c := range rawdb.ReadAllClaims(db) {
		table.Append([]string{
			c.Key.Hex(),
			c.Passenger.Hex(),
			c.FlightKey.Hex(),
			strconv.FormatUint(c.Premium, 10),
			strconv.FormatBool(c.Paid),
		})
	}
	table.Render()

	fmt.Println("\nOracles:")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Oracle", "Indexes"})
	for _, o := range rawdb.ReadAllOracles(db) {
		table.Append([]string{o.Address.Hex(), fmt.Sprint(o.Indexes)})
	}
	table.Render()

	fmt.Println("\nStatus requests:")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Index", "Flight Code", "Open", "Report Sets"})
	for _, r := range rawdb.ReadAllRequests(db) {
		table.Append([]string{
			r.Key.Hex(),
			strconv.Itoa(int(r.Index)),
			r.Code,
			strconv.FormatBool(r.Open),
			strconv.Itoa(len(r.Reports)),
		})
	}
	table.Render()

	rec, ok := rawdb.ReadLedgerRecord(db)
	if !ok {
		return errors.New("no fund ledger in database")
	}
	l := ledger.New()
	l.Load(rec)
	if err := l.CheckConservation(); err != nil {
		log.Crit("Fund conservation violated", "err", err)
	}
	totals := l.Totals()

	fmt.Println("\nFund ledger:")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Escrow", "Pool", "Oracle Fees", "Credits Owed", "Total In", "Total Out"})
	table.Append([]string{
		strconv.FormatUint(totals.AirlineEscrow, 10),
		strconv.FormatUint(totals.InsurancePool, 10),
		strconv.FormatUint(totals.OracleFees, 10),
		strconv.FormatUint(totals.Credits, 10),
		strconv.FormatUint(totals.TotalIn, 10),
		strconv.FormatUint(totals.TotalOut, 10),
	})
	table.Render()
	fmt.Println("\nConservation: ok")
	return nil
}
