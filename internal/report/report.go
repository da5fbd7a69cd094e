// Package report prints the console summary of the batch command.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/analysis"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

const rule = "========================================================="

// Write prints the full report: descriptive statistics, moments, missing
// values, outlier bounds and the outlier rows.
func Write(w io.Writer, s *analysis.Summary) error {
	tw := newTabWriter(w)

	banner(tw, "Sunspot Activity Report")
	fmt.Fprintf(tw, "Source:\t%s\n", s.Source)
	fmt.Fprintf(tw, "Column:\t%s\n", s.Column)
	fmt.Fprintf(tw, "Rows:\t%d (complete)\n", s.Rows)

	section(tw, "Descriptive Statistics")
	fmt.Fprintf(tw, "\t%s\t%s\n", solar.YearColumn, s.Column)
	describeRows(tw, s.Year, s.Value)

	section(tw, "Shape")
	fmt.Fprintf(tw, "Skewness:\t%.4f\n", s.Moments.Skewness)
	fmt.Fprintf(tw, "Kurtosis:\t%.4f\n", s.Moments.Kurtosis)

	missing(tw, s.Missing)

	section(tw, "Outlier Bounds (1.5 x IQR)")
	fmt.Fprintf(tw, "Q1:\t%.2f\n", s.Bounds.Q1)
	fmt.Fprintf(tw, "Q3:\t%.2f\n", s.Bounds.Q3)
	fmt.Fprintf(tw, "IQR:\t%.2f\n", s.Bounds.IQR)
	fmt.Fprintf(tw, "Lower bound:\t%.2f\n", s.Bounds.Lower)
	fmt.Fprintf(tw, "Upper bound:\t%.2f\n", s.Bounds.Upper)

	section(tw, fmt.Sprintf("Outliers (%d)", len(s.Outliers)))
	if len(s.Outliers) == 0 {
		fmt.Fprintln(tw, "none")
	} else {
		fmt.Fprintf(tw, "Date\t%s\n", s.Column)
		for _, o := range s.Outliers {
			fmt.Fprintf(tw, "%s\t%.2f\n", o.Date.Format(time.DateOnly), o.Value)
		}
	}
	fmt.Fprintln(tw, rule)

	return tw.Flush()
}

// WriteMissing prints only the missing-value diagnostics. The batch
// command uses it when no complete rows remain to summarize.
func WriteMissing(w io.Writer, source string, counts []solar.MissingCount) error {
	tw := newTabWriter(w)
	banner(tw, "Sunspot Activity Report")
	fmt.Fprintf(tw, "Source:\t%s\n", source)
	missing(tw, counts)
	fmt.Fprintln(tw, rule)
	return tw.Flush()
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func banner(w io.Writer, title string) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "---------------------------------------------------------")
}

func missing(w io.Writer, counts []solar.MissingCount) {
	section(w, "Missing Values")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Column, c.Count)
	}
}

func describeRows(w io.Writer, a, b analysis.Description) {
	fmt.Fprintf(w, "count\t%d\t%d\n", a.Count, b.Count)
	rows := []struct {
		name string
		a, b float64
	}{
		{"mean", a.Mean, b.Mean},
		{"std", a.Std, b.Std},
		{"min", a.Min, b.Min},
		{"25%", a.Q1, b.Q1},
		{"50%", a.Median, b.Median},
		{"75%", a.Q3, b.Q3},
		{"max", a.Max, b.Max},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\n", r.name, r.a, r.b)
	}
}
