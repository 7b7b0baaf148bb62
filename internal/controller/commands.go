package controller

import (
	"fmt"
	"strings"

	"CoinLens/internal/model"
)

const helpText = `Available commands:
• /symbols - list supported symbols
• /symbol <SYMBOL> - switch asset
• /charts - list charts
• /chart <price|ma|returns|volume> - show a chart
• /refresh - reload data
• /status - show load state`

// HandleCommand processes a text command and returns a reply. Replies are
// empty when the outcome is delivered through the presenter instead.
func (c *Controller) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(command), fields[0]))

	switch name {
	case "/symbols":
		return c.formatSymbols()
	case "/symbol":
		if arg == "" {
			return "Usage: /symbol <SYMBOL>\n" + c.formatSymbols()
		}
		if _, err := c.SelectSymbol(strings.ToUpper(arg)); err != nil {
			return fmt.Sprintf("%v\n%s", err, c.formatSymbols())
		}
		return ""
	case "/charts":
		return formatCharts()
	case "/chart":
		kind, err := model.ParseChartKind(arg)
		if err != nil {
			return fmt.Sprintf("%v\n%s", err, formatCharts())
		}
		if _, err := c.SelectChart(kind); err != nil {
			return err.Error()
		}
		return ""
	case "/refresh":
		c.Refresh()
		return ""
	case "/status":
		return formatSnapshot(c.Snapshot())
	default:
		return helpText
	}
}

func (c *Controller) formatSymbols() string {
	current := c.Snapshot().Symbol
	var b strings.Builder
	b.WriteString("Symbols:\n")
	for _, s := range c.opts.Symbols {
		marker := "  "
		if s == current {
			marker = "▶ "
		}
		b.WriteString(marker + s + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCharts() string {
	var b strings.Builder
	b.WriteString("Charts:\n")
	for _, k := range model.ChartKinds {
		b.WriteString("  " + k.String() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSnapshot(s Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Symbol: %s\n", s.Symbol))
	b.WriteString(fmt.Sprintf("Chart: %s\n", s.Chart))
	b.WriteString(fmt.Sprintf("State: %s (request #%d)\n", s.State, s.Request))
	if s.Loaded {
		b.WriteString(fmt.Sprintf("Bars: %d, fetched %s\n", s.Bars, s.FetchedAt.Format("2006-01-02 15:04")))
	} else {
		b.WriteString("No data loaded yet\n")
	}
	if s.LastError != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", s.LastError))
	}
	return strings.TrimRight(b.String(), "\n")
}
