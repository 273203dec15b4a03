package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

type scheduleCmd struct {
	principal string
	rate      string
	months    int
	start     string
	currency  string
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "print an amortization table offline" }
func (*scheduleCmd) Usage() string {
	return `ledgerctl schedule -principal <amount> -rate <annual %> -months <n> -start <YYYY-MM-DD> [-currency <ISO>]

  Prints the installment rows a loan with these terms would get.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.principal, "principal", "", "Amount borrowed.")
	f.StringVar(&c.rate, "rate", "0", "Annual interest rate in percent.")
	f.IntVar(&c.months, "months", 12, "Tenure in months.")
	f.StringVar(&c.start, "start", "", "Date of the first installment. Defaults to today.")
	f.StringVar(&c.currency, "currency", "USD", "ISO 4217 code used to format amounts.")
}

func (c *scheduleCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	principal, err := decimal.NewFromString(c.principal)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -principal: %v\n", err)
		return subcommands.ExitUsageError
	}
	rate, err := decimal.NewFromString(c.rate)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -rate: %v\n", err)
		return subcommands.ExitUsageError
	}
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if c.start != "" {
		if start, err = time.Parse(time.DateOnly, c.start); err != nil {
			fmt.Fprintf(stderr, "invalid -start: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	cur := money.GetCurrency(strings.ToUpper(c.currency))
	if cur == nil {
		fmt.Fprintf(stderr, "unknown currency %q\n", c.currency)
		return subcommands.ExitUsageError
	}

	sched, err := loan.BuildSchedule(principal, rate, c.months, start)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}

	writeSchedule(stdout, sched, cur)
	return subcommands.ExitSuccess
}

func writeSchedule(w io.Writer, sched *loan.Schedule, cur *money.Currency) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tDue\tInstallment\tPrincipal\tInterest\t")
	for i, row := range sched.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			i+1,
			row.DueDate.Format(time.DateOnly),
			formatAmount(row.Amount, cur),
			formatAmount(row.Principal, cur),
			formatAmount(row.Interest, cur),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\ninstallment %s, total interest %s\n",
		formatAmount(sched.Installment, cur), formatAmount(sched.TotalInterest(), cur))
}

// formatAmount renders a major-unit decimal with the currency's own
// grapheme and separators.
func formatAmount(d decimal.Decimal, cur *money.Currency) string {
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
