package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

type categoryTotal struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Total    string `json:"total"`
	Included bool   `json:"included"`
}

type marketTotal struct {
	Market     domain.Market   `json:"market"`
	Total      string          `json:"total"`
	Categories []categoryTotal `json:"categories"`
}

type netWorthView struct {
	Filter  string        `json:"filter"`
	Markets []marketTotal `json:"markets"`
}

// format renders a decimal string of the API in the market currency
func format(m domain.Market, amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return m.Format(d)
}

func renderNetWorth(v netWorthView) string {
	var b strings.Builder
	filter := v.Filter
	if filter == "" {
		filter = "all"
	}
	fmt.Fprintf(&b, "# Net worth\n\nFamily filter: `%s`\n\n", filter)

	for _, mt := range v.Markets {
		fmt.Fprintf(&b, "## %s (%s)\n\n", mt.Market, mt.Market.CurrencyCode())
		b.WriteString("| Category | Assets | Total |\n|---|---:|---:|\n")
		for _, ct := range mt.Categories {
			total := format(mt.Market, ct.Total)
			if !ct.Included {
				total += " (excluded)"
			}
			fmt.Fprintf(&b, "| %s | %d | %s |\n", ct.Category, ct.Count, total)
		}
		fmt.Fprintf(&b, "\n**Total: %s**\n\n", format(mt.Market, mt.Total))
	}
	return b.String()
}

// networthCmd prints the net worth of every market
type networthCmd struct {
	app *App
}

func (*networthCmd) Name() string     { return "networth" }
func (*networthCmd) Synopsis() string { return "display the net worth of every market" }
func (*networthCmd) Usage() string {
	return `finai networth

  Displays the net worth per market with a per-category breakdown.
  Insurance policies are listed but never counted.
`
}

func (c *networthCmd) SetFlags(f *flag.FlagSet) {}

func (c *networthCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var v netWorthView
	if err := c.app.call(ctx, http.MethodGet, "/api/view/networth", nil, &v); err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(renderNetWorth(v))
	return subcommands.ExitSuccess
}

type assetRow struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
	Record   struct {
		Name           string `json:"name"`
		FamilyMemberID string `json:"family_member_id"`
	} `json:"record"`
}

type assetList struct {
	Category    string        `json:"category"`
	Market      domain.Market `json:"market"`
	AllSelected bool          `json:"allSelected"`
	Assets      []assetRow    `json:"assets"`
}

func renderList(l assetList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", l.Category, l.Market)
	if len(l.Assets) == 0 {
		b.WriteString("_No assets._\n")
		return b.String()
	}

	b.WriteString("| # | Selected | ID | Name | Member | Value |\n|---:|:---:|---|---|---|---:|\n")
	for i, a := range l.Assets {
		mark := ""
		if a.Selected {
			mark = "x"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, mark, a.ID, escapeCell(a.Record.Name), a.Record.FamilyMemberID, format(l.Market, a.Value))
	}
	if l.AllSelected {
		b.WriteString("\nAll assets are selected.\n")
	}
	return b.String()
}

// escapeCell keeps a free-text value from breaking a markdown table row
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// listCmd prints the visible assets of a bucket in display order
type listCmd struct {
	app *App
	bucketFlags
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the assets of a category in display order" }
func (*listCmd) Usage() string {
	return `finai list [-m <market>] [-c <category>]

  Lists the assets of one category and market after the family filter, in the saved order.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) { c.bucketFlags.set(f) }

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := c.path()
	if err != nil {
		fmt.Fprintln(c.app.Err, err)
		return subcommands.ExitUsageError
	}

	var l assetList
	if err := c.app.call(ctx, http.MethodGet, path+"/", nil, &l); err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(renderList(l))
	return subcommands.ExitSuccess
}

// filterCmd shows or changes the family-member filter
type filterCmd struct {
	app *App
}

func (*filterCmd) Name() string     { return "filter" }
func (*filterCmd) Synopsis() string { return "show or set the family-member filter" }
func (*filterCmd) Usage() string {
	return `finai filter [<member-id>|all]

  Without argument, prints the current filter and the family roster.
  With an argument, restricts every list and the net worth to that member.
`
}

func (c *filterCmd) SetFlags(f *flag.FlagSet) {}

func (c *filterCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}

	if f.NArg() == 1 {
		var v netWorthView
		if err := c.app.call(ctx, http.MethodPut, "/api/view/filter", map[string]string{"value": f.Arg(0)}, &v); err != nil {
			return c.app.fail(err)
		}
		c.app.printMarkdown(renderNetWorth(v))
		return subcommands.ExitSuccess
	}

	var current struct {
		Value string `json:"value"`
	}
	if err := c.app.call(ctx, http.MethodGet, "/api/view/filter", nil, &current); err != nil {
		return c.app.fail(err)
	}
	var members []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
	}
	if err := c.app.call(ctx, http.MethodGet, "/api/view/members", nil, &members); err != nil {
		return c.app.fail(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current filter: `%s`\n\n| ID | Name | Relationship |\n|---|---|---|\n", current.Value)
	for _, m := range members {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.ID, escapeCell(m.Name), m.Relationship)
	}
	c.app.printMarkdown(b.String())
	return subcommands.ExitSuccess
}
