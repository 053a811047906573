package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gostats/adapters/stats/stages"
	"gostats/domain/stats"
)

const msgNoRows = "No comparisons"

// Config controls what a report shows
type Config struct {
	Title          string
	Significance   float64 // q-value threshold for the summary count; 0 disables
	MaxRows        int     // 0 shows every row
	Profiles       []stages.GroupProfile
	ShowDegraded   bool
	FloatPrecision int
}

// DefaultConfig returns the report defaults used by the cli
func DefaultConfig() Config {
	return Config{
		Title:          "Pairwise comparisons",
		Significance:   0.05,
		ShowDegraded:   true,
		FloatPrecision: 4,
	}
}

// Formatter renders stats tables for humans
type Formatter struct {
	config Config
}

// NewFormatter creates a formatter
func NewFormatter(config Config) *Formatter {
	if config.FloatPrecision <= 0 {
		config.FloatPrecision = DefaultConfig().FloatPrecision
	}
	return &Formatter{config: config}
}

// Text renders the table as a terminal table with a summary footer
func (f *Formatter) Text(t *stats.StatsTable) string {
	rows := t.Rows()
	if len(rows) == 0 {
		return msgNoRows
	}

	tbl := newWriter()
	tbl.Style().Options.SeparateRows = false

	header := table.Row{}
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	tbl.AppendHeader(header)

	for _, r := range f.limit(rows) {
		row := table.Row{}
		for _, cell := range f.cells(r) {
			row = append(row, cell)
		}
		tbl.AppendRow(row)
	}
	tbl.AppendFooter(table.Row{f.summary(t)})

	var parts []string
	if len(f.config.Profiles) > 0 {
		parts = append(parts, f.profileTable().Render())
	}
	parts = append(parts, tbl.Render())
	return strings.Join(parts, "\n\n")
}

// Markdown renders the table, the summary and any group profiles as markdown
func (f *Formatter) Markdown(t *stats.StatsTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.config.Title)
	fmt.Fprintf(&b, "- test: `%s`\n- compare: `%s`\n- alternative: `%s`\n- table: `%s`\n\n",
		t.Test, t.Compare, t.Alternative, t.ID)

	if len(f.config.Profiles) > 0 {
		b.WriteString("## Groups\n\n")
		b.WriteString(f.profileTable().RenderMarkdown())
		b.WriteString("\n\n")
	}

	b.WriteString("## Comparisons\n\n")
	rows := t.Rows()
	if len(rows) == 0 {
		b.WriteString(msgNoRows + "\n")
		return b.String()
	}

	tbl := newWriter()
	header := table.Row{}
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	tbl.AppendHeader(header)
	for _, r := range f.limit(rows) {
		row := table.Row{}
		for _, cell := range f.cells(r) {
			row = append(row, cell)
		}
		tbl.AppendRow(row)
	}
	b.WriteString(tbl.RenderMarkdown())
	b.WriteString("\n\n")
	b.WriteString(f.summary(t))
	b.WriteString("\n")

	if f.config.ShowDegraded {
		if notes := degradedNotes(rows); len(notes) > 0 {
			b.WriteString("\n## Notes\n\n")
			for _, n := range notes {
				b.WriteString("- " + n + "\n")
			}
		}
	}
	return b.String()
}

// HTML renders the markdown report as a standalone page
func (f *Formatter) HTML(t *stats.StatsTable) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: f.config.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(f.Markdown(t)), p, renderer)
}

// Write renders t in the given format ("text", "markdown" or "html")
func (f *Formatter) Write(w io.Writer, t *stats.StatsTable, format string) error {
	var out []byte
	switch format {
	case "text", "":
		out = []byte(f.Text(t) + "\n")
	case "markdown", "md":
		out = []byte(f.Markdown(t))
	case "html":
		out = f.HTML(t)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
	_, err := w.Write(out)
	return err
}

// newWriter keeps column names as written; they are case-sensitive
func newWriter() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

func (f *Formatter) limit(rows []stats.PairwiseResult) []stats.PairwiseResult {
	if f.config.MaxRows > 0 && len(rows) > f.config.MaxRows {
		return rows[:f.config.MaxRows]
	}
	return rows
}

func (f *Formatter) cells(r stats.PairwiseResult) []string {
	return []string{
		r.FacetID, r.GroupA, r.GroupB,
		strconv.Itoa(r.NA), f.float(r.MeasureA),
		strconv.Itoa(r.NB), f.float(r.MeasureB),
		strconv.Itoa(r.N), f.float(r.Statistic),
		f.float(r.PValue), f.float(r.QValue),
		f.float(r.EffectSize), string(r.Method), string(r.Degradation),
	}
}

func (f *Formatter) float(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', f.config.FloatPrecision, 64)
}

func (f *Formatter) summary(t *stats.StatsTable) string {
	rows := t.Rows()
	tested, significant := 0, 0
	for _, r := range rows {
		if r.IsNaN() {
			continue
		}
		tested++
		if f.config.Significance > 0 && r.QValue < f.config.Significance {
			significant++
		}
	}
	s := fmt.Sprintf("Total: %d comparisons, %d tested", len(rows), tested)
	if f.config.Significance > 0 {
		s += fmt.Sprintf(", %d with q < %g", significant, f.config.Significance)
	}
	if shown := len(f.limit(rows)); shown < len(rows) {
		s += fmt.Sprintf(" (showing %d)", shown)
	}
	return s
}

func (f *Formatter) profileTable() table.Writer {
	tbl := newWriter()
	tbl.AppendHeader(table.Row{"group", "n", "mean", "median", "Q1", "Q3", "variance", "distinct", "flags"})
	for _, p := range f.config.Profiles {
		var flags []string
		if p.ZeroVariance {
			flags = append(flags, "zero-variance")
		}
		if p.HasTies {
			flags = append(flags, "ties")
		}
		tbl.AppendRow(table.Row{
			p.Group, p.N, f.float(p.Mean), f.float(p.Median), f.float(p.Q1), f.float(p.Q3),
			f.float(p.Variance), p.Cardinality, strings.Join(flags, ","),
		})
	}
	return tbl
}

func degradedNotes(rows []stats.PairwiseResult) []string {
	var notes []string
	for _, r := range rows {
		label := r.GroupA + " vs " + r.GroupB
		if r.FacetID != "" {
			label = r.FacetID + ": " + label
		}
		switch r.Degradation {
		case stats.DegradationEmptyComparator:
			notes = append(notes, label+" was not tested, one group is empty")
		case stats.DegradationExactFallback:
			notes = append(notes, label+" used the asymptotic p-value, exact was not available")
		}
	}
	return notes
}
