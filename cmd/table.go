package cmd

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/filmoteca/chartfetch/internal/chart"
)

// renderMovieTable renders merged chart entries as a terminal table. Numeric
// columns are right-aligned; missing fields render as empty cells.
func renderMovieTable(movies []chart.Movie) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"#", "Title", "Rating", "Votes", "Duration"})
	for _, m := range movies {
		tw.AppendRow(table.Row{
			m.Rank,
			movieTitle(m),
			string(m.RatingValue),
			string(m.RatingCount),
			m.Duration,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// movieTitle joins the regional title with the original one when they differ.
func movieTitle(m chart.Movie) string {
	title := m.Name
	if m.AlternateName != "" && m.AlternateName != m.Name {
		title += " (" + m.AlternateName + ")"
	}
	return strings.TrimSpace(title)
}
