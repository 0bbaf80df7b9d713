// Package report renders a startup's analysis as a standalone HTML page.
package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/venturelens/venturelens/internal/analysis"
	"github.com/venturelens/venturelens/internal/startup"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown builds the report source.
func Markdown(d startup.Detail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", inline(d.Name))
	fmt.Fprintf(&b, "**Industry:** %s · **Stage:** %s", inline(d.Industry), inline(d.Stage))
	if d.Funding != "" {
		fmt.Fprintf(&b, " · **Funding raised:** %s", inline(d.Funding))
	}
	b.WriteString("\n\n")
	if d.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", inline(d.Description))
	}
	fmt.Fprintf(&b, "## AI score: %d/100 (%s trust)\n\n", d.AIScore, d.TrustSignal)

	b.WriteString("| Category | Score | Reasoning |\n|---|---:|---|\n")
	for _, c := range analysis.Categories {
		fmt.Fprintf(&b, "| %s | %.0f | %s |\n", c, d.Scores[c], cell(d.Reasoning[c]))
	}
	b.WriteString("\n")

	b.WriteString("## Anomalies\n\n")
	if len(d.Anomalies) == 0 {
		b.WriteString("No anomalies were detected.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d high, %d medium, %d low.\n\n", d.AnomalyCounts.High, d.AnomalyCounts.Medium, d.AnomalyCounts.Low)
	for _, a := range d.Anomalies {
		fmt.Fprintf(&b, "### %s (%s)\n\n", inline(a.Title), a.Priority)
		if a.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", inline(a.Description))
		}
		if a.Claims.Deck != "" || a.Claims.Website != "" {
			b.WriteString("| Source | Claim |\n|---|---|\n")
			fmt.Fprintf(&b, "| Deck | %s |\n| Website | %s |\n\n", cell(a.Claims.Deck), cell(a.Claims.Website))
		}
	}
	return b.String()
}

// HTML renders d into a full HTML document.
func HTML(d startup.Detail) ([]byte, error) {
	var body strings.Builder
	if err := md.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}
	return []byte("<!doctype html><html><head><meta charset='utf-8'><title>" +
		html.EscapeString(d.Name) + " | VentureLens report</title>" +
		"<style>body{font-family:system-ui,sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;color:#1c1917} " +
		"table{border-collapse:collapse;width:100%} th,td{border:1px solid #d6d3d1;padding:.35rem .5rem;text-align:left;vertical-align:top}</style>" +
		"</head><body>" + body.String() + "</body></html>"), nil
}

// inline flattens s to one line so it cannot start a new block.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cell(s string) string {
	return strings.ReplaceAll(inline(s), "|", `\|`)
}
