package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	ghchk "github.com/yasuyuky/gh-chk"
	"github.com/yasuyuky/gh-chk/types"
)

// textReporter renders a report for humans.
//
//	octo/hello#42 Fix login
//	  +bob
//	  -alice
type textReporter struct {
	w io.Writer

	slug    *color.Color
	title   *color.Color
	added   *color.Color
	removed *color.Color
	failed  *color.Color
	faint   *color.Color
}

func newTextReporter(w io.Writer, colorize bool) *textReporter {
	r := &textReporter{
		w:       w,
		slug:    color.New(color.FgCyan),
		title:   color.New(color.FgYellow),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		failed:  color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.slug, r.title, r.added, r.removed, r.failed, r.faint} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

func (r *textReporter) Write(report *ghchk.Report) error {
	var buf bytes.Buffer

	for _, res := range report.Results {
		r.writeResult(&buf, res)
	}

	summary := fmt.Sprintf("%d items: %d changed, %d baseline, %d failed",
		len(report.Results), len(report.Changed()), report.Baselines(), report.Failed())
	if report.DryRun {
		summary += " (dry run, nothing stored)"
	}
	fmt.Fprintln(&buf, r.faint.Sprint(summary))

	_, err := buf.WriteTo(r.w)

	return err
}

func (r *textReporter) writeResult(buf *bytes.Buffer, res ghchk.Result) {
	header := r.slug.Sprint(res.Ref.String())
	if res.Title != "" {
		header += " " + r.title.Sprint(res.Title)
	}
	fmt.Fprintln(buf, header)

	if res.State == ghchk.ItemFailed {
		fmt.Fprintf(buf, "  %s %v\n", r.failed.Sprintf("error[%s]:", res.ErrorKind()), res.Err)
		return
	}

	if res.History != nil {
		for _, e := range res.History.Entries {
			fmt.Fprintf(buf, "  %s %s %s -> [%s]\n",
				r.faint.Sprint(e.Event.Timestamp.UTC().Format(time.RFC3339)),
				e.Event.Kind, e.Event.Assignee, strings.Join(e.Assignees, ", "))
		}
		fmt.Fprintf(buf, "  max concurrent assignees: %d\n", res.History.MaxConcurrent)
	}

	switch {
	case res.Diff.IsBaseline:
		fmt.Fprintf(buf, "  baseline: %s\n", formatLogins(res.Current))
	case res.Diff.Empty():
		fmt.Fprintln(buf, r.faint.Sprint("  no change"))
	default:
		for _, login := range res.Diff.Added.Sorted() {
			fmt.Fprintln(buf, "  "+r.added.Sprint("+"+login))
		}
		for _, login := range res.Diff.Removed.Sorted() {
			fmt.Fprintln(buf, "  "+r.removed.Sprint("-"+login))
		}
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(buf, "  %s %s\n", r.faint.Sprint("warning:"), w)
	}
}

func formatLogins(s types.LoginSet) string {
	if s.Len() == 0 {
		return "(none)"
	}

	return strings.Join(s.Sorted(), ", ")
}

type jsonReport struct {
	RunID      string     `json:"run_id"`
	DryRun     bool       `json:"dry_run"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Items      []jsonItem `json:"items"`
}

type jsonItem struct {
	Item       string         `json:"item"`
	Title      string         `json:"title,omitempty"`
	State      string         `json:"state"`
	Assignees  []string       `json:"assignees"`
	AsOf       *time.Time     `json:"as_of,omitempty"`
	Baseline   bool           `json:"baseline"`
	Added      []string       `json:"added"`
	Removed    []string       `json:"removed"`
	History    *types.History `json:"history,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	Error      *jsonError     `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

type jsonError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w io.Writer, report *ghchk.Report) error {
	out := jsonReport{
		RunID:      report.RunID,
		DryRun:     report.DryRun,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Items:      make([]jsonItem, 0, len(report.Results)),
	}

	for _, res := range report.Results {
		item := jsonItem{
			Item:       res.Ref.String(),
			Title:      res.Title,
			State:      res.State.String(),
			History:    res.History,
			DurationMS: res.Duration.Milliseconds(),
		}
		for _, warn := range res.Warnings {
			item.Warnings = append(item.Warnings, warn.String())
		}

		if res.Err != nil {
			item.Error = &jsonError{Kind: res.ErrorKind().String(), Message: res.Err.Error()}
		} else {
			item.Assignees = res.Current.Sorted()
			asOf := res.AsOf
			item.AsOf = &asOf
			item.Baseline = res.Diff.IsBaseline
			item.Added = res.Diff.Added.Sorted()
			item.Removed = res.Diff.Removed.Sorted()
		}

		out.Items = append(out.Items, item)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
