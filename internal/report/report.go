// Package report renders continuation results for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/objective"
)

// Sink consumes a finished run.
type Sink interface {
	Report(res *continuation.Result) error
}

// Console writes a styled summary table and a residual chart.
type Console struct {
	Out           io.Writer
	Constants     objective.Constants
	Tolerance     float64
	MaxIterations int
	// Chart toggles the asciigraph residual chart.
	Chart bool
}

func (c *Console) Report(res *continuation.Result) error {
	q := objective.NewQuadratic(c.Constants)
	k := c.Constants

	fmt.Fprintln(c.Out, Title.Render("penalty continuation"))
	fmt.Fprintf(c.Out, "%s  %s  %s  %s  %s  %s\n",
		kv("a", g(k.A)), kv("b", g(k.B)), kv("c", g(k.C)),
		kv("d", g(k.D)), kv("e", g(k.E)), kv("f", g(k.F)))
	fmt.Fprintf(c.Out, "%s  %s  %s\n",
		kv("x0", res.Initial.String()), kv("tol", g(c.Tolerance)), kv("max_iter", strconv.Itoa(c.MaxIterations)))
	fmt.Fprintln(c.Out, Separator(72))

	// Cells stay unstyled; escape codes would break tabwriter alignment.
	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tR\tX1\tX2\tSTATUS\tITER\tHALV\tRESIDUAL\tREFERENCE")
	for _, st := range res.Stages {
		sr := st.Result
		fmt.Fprintf(w, "%d\t%g\t%.6f\t%.6f\t%s\t%d\t%d\t%.3e\t%s\n",
			st.Index+1, st.R, sr.Point[0], sr.Point[1], sr.Status,
			sr.Iterations, sr.Halvings, q.Residual(sr.Point), reference(st.Reference))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(c.Out, Separator(72))
	final := res.Final()
	fmt.Fprintf(c.Out, "%s  %s\n", kv("final", final.String()), kv("residual", fmt.Sprintf("%.3e", q.Residual(final))))

	if c.Chart && len(res.Stages) > 1 {
		fmt.Fprintln(c.Out)
		fmt.Fprintln(c.Out, ResidualChart(q, res.Trajectory[1:]))
	}

	if res.CapReached() == 0 && res.ReferenceFailures() == 0 {
		fmt.Fprintln(c.Out, StatusOK.Render(fmt.Sprintf("all %d stage(s) converged", len(res.Stages))))
	}
	if n := res.CapReached(); n > 0 {
		fmt.Fprintln(c.Out, StatusWarn.Render(fmt.Sprintf("%d stage(s) hit the iteration cap", n)))
	}
	if n := res.ReferenceFailures(); n > 0 {
		fmt.Fprintln(c.Out, StatusFail.Render(fmt.Sprintf("reference optimizer failed on %d stage(s)", n)))
		for _, st := range res.Stages {
			if st.Reference != nil && !st.Reference.Converged {
				fmt.Fprintf(c.Out, "  R=%g: %s\n", st.R, st.Reference.Message)
			}
		}
	}
	return nil
}

// ResidualChart plots log10 |d*x1 + f*x2 + e| for each point.
func ResidualChart(q *objective.Quadratic, points []objective.Point) string {
	data := make([]float64, len(points))
	for i, p := range points {
		r := math.Abs(q.Residual(p))
		if r < 1e-16 {
			r = 1e-16
		}
		data[i] = math.Log10(r)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("log10 |constraint residual| per stage"),
	)
}

// Trajectory prints the stage points of a run when only its trajectory is
// available. points[0] is the initial point; penalties are aligned with it.
func Trajectory(out io.Writer, k objective.Constants, points []objective.Point, penalties []float64) error {
	if len(points) == 0 {
		fmt.Fprintln(out, Subtle.Render("empty trajectory"))
		return nil
	}
	q := objective.NewQuadratic(k)

	fmt.Fprintln(out, Title.Render("trajectory"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tR\tX1\tX2\tRESIDUAL")
	for i, p := range points {
		r := "-"
		if i > 0 && i < len(penalties) {
			r = g(penalties[i])
		}
		fmt.Fprintf(w, "%d\t%s\t%.6f\t%.6f\t%.3e\n", i, r, p[0], p[1], q.Residual(p))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(points) > 2 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ResidualChart(q, points[1:]))
	}
	return nil
}

func reference(v *continuation.Verification) string {
	if v == nil {
		return "-"
	}
	if !v.Converged {
		return v.Method + " failed"
	}
	return fmt.Sprintf("%s %s Δ=%.1e", v.Method, v.Point, v.Distance)
}

func g(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// JSON writes the run as an indented JSON document.
type JSON struct {
	Out io.Writer
}

func (j *JSON) Report(res *continuation.Result) error {
	enc := json.NewEncoder(j.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
