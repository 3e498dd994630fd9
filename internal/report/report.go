package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/calculator"
	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Household is the row data of a household listing.
type Household struct {
	ID        string
	Name      string
	Role      string
	IsDefault bool
}

// Households lists the caller's households.
func Households(households []Household) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Households")

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Header:    []string{"", "Name", "Role", "ID"},
		Rows:      [][]string{},
	}
	for _, h := range households {
		mark := ""
		if h.IsDefault {
			mark = "*"
		}
		table.Rows = append(table.Rows, []string{mark, h.Name, h.Role, h.ID})
	}
	doc.Table(table)
	return doc.String()
}

// Entries lists entries with their total. names maps user IDs to display
// names; unknown authors are shown by ID.
func Entries(title string, entries []models.Entry, total decimal.Decimal, names map[string]string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft,
			md.AlignRight, md.AlignRight, md.AlignRight, md.AlignLeft,
		},
		Header: []string{"Date", "Member", "Venue", "Instrument", "Stake", "Payout", "Balance", "ID"},
		Rows:   [][]string{},
	}
	for _, e := range entries {
		author := names[e.UserID]
		if author == "" {
			author = e.UserID
		}
		table.Rows = append(table.Rows, []string{
			e.Date,
			author,
			e.Venue,
			e.Instrument,
			Amount(e.Stake),
			Amount(e.Payout),
			Signed(decimal.NewFromInt(e.Balance())),
			e.ID,
		})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", "", "", "", md.Bold(Signed(total)), ""})
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("%d entries", len(entries)))
	return doc.String()
}

func bucketTable(header string, buckets []calculator.Bucket, label func(string) string) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{header, "Sessions", "Balance"},
		Rows:      [][]string{},
	}
	for _, b := range buckets {
		table.Rows = append(table.Rows, []string{label(b.Key), strconv.Itoa(b.Count), Signed(b.Total)})
	}
	return table
}

func identity(s string) string { return s }

// History renders the lifetime summary.
func History(v calculator.HistoryView) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("History")
	doc.PlainText(fmt.Sprintf("Lifetime balance: %s over %d sessions", md.Bold(Signed(v.Lifetime)), v.Count))

	doc.H2("By year")
	doc.Table(bucketTable("Year", v.Years, identity))
	doc.H2("By month")
	doc.Table(bucketTable("Month", v.Months, calculator.MonthLabel))
	return doc.String()
}

func rankingTable(header string, rankings []calculator.Ranking) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
		},
		Header: []string{header, "Sessions", "W-L-D", "Win rate", "Balance"},
		Rows:   [][]string{},
	}
	for _, r := range rankings {
		table.Rows = append(table.Rows, []string{
			r.Label,
			strconv.Itoa(r.Count),
			fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Draws),
			fmt.Sprintf("%.0f%%", r.WinRate()*100),
			Signed(r.Total),
		})
	}
	return table
}

// Ranking renders the leaderboard of one label kind.
func Ranking(kind models.LabelKind, rankings []calculator.Ranking) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	header := "Venue"
	if kind == models.LabelInstrument {
		header = "Instrument"
	}
	doc.H1(header + " ranking")
	doc.Table(rankingTable(header, rankings))
	return doc.String()
}

// Standings renders each member's stake, payout and net result. names
// maps user IDs to display names.
func Standings(balances []calculator.MemberBalance, names map[string]string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Standings")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
		},
		Header: []string{"Member", "Sessions", "Staked", "Paid out", "Net"},
		Rows:   [][]string{},
	}
	for _, b := range balances {
		name := names[b.UserID]
		if name == "" {
			name = b.UserID
		}
		table.Rows = append(table.Rows, []string{
			name,
			strconv.Itoa(b.Count),
			Decimal(b.TotalStaked),
			Decimal(b.TotalPaidOut),
			Signed(b.NetBalance),
		})
	}
	doc.Table(table)
	return doc.String()
}

// Analysis renders the trend view.
func Analysis(v calculator.AnalysisView) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Analysis")

	doc.H2("Last 12 months")
	doc.Table(bucketTable("Month", v.Monthly, calculator.MonthLabel))

	doc.H2("Trajectory")
	trajectory := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Session", "Running"},
		Rows:      [][]string{},
	}
	for _, p := range v.Trajectory {
		trajectory.Rows = append(trajectory.Rows, []string{
			p.Date,
			Signed(decimal.NewFromInt(p.Balance)),
			Signed(p.Running),
		})
	}
	doc.Table(trajectory)
	doc.PlainText(fmt.Sprintf("Final balance: %s", md.Bold(Signed(v.Final))))

	doc.H2("Venues")
	doc.Table(rankingTable("Venue", v.Venues))
	doc.H2("Instruments")
	doc.Table(rankingTable("Instrument", v.Instruments))
	return doc.String()
}

// Calendar renders a month as a Sunday-first grid of daily balances.
func Calendar(year int, month time.Month, days []calculator.Day) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(ledger.Month(year, month).String())

	header := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	align := make([]md.TableAlignment, len(header))
	for i := range align {
		align[i] = md.AlignRight
	}
	table := md.TableSet{Alignment: align, Header: header, Rows: [][]string{}}

	var week []string
	if len(days) > 0 {
		week = make([]string, int(days[0].Weekday))
	}
	monthTotal := decimal.Zero
	for _, d := range days {
		cell := strconv.Itoa(d.Day)
		if d.Count > 0 {
			cell += " " + Signed(d.Total)
			monthTotal = monthTotal.Add(d.Total)
		}
		week = append(week, cell)
		if len(week) == 7 {
			table.Rows = append(table.Rows, week)
			week = nil
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, "")
		}
		table.Rows = append(table.Rows, week)
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("Month balance: %s", md.Bold(Signed(monthTotal))))
	return doc.String()
}
