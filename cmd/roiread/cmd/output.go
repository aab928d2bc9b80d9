package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/roiread/pkg/roi"
	"github.com/ssargent/roiread/pkg/storage"
)

// outputValue writes v as JSON or YAML. Table output is handled by callers.
func outputValue(w io.Writer, format string, v interface{}) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

// outputCollection displays every ROI of a collection in detail
func outputCollection(w io.Writer, format string, coll *roi.Collection) error {
	if format != "table" {
		return outputValue(w, format, coll)
	}
	if coll.Len() == 0 && len(coll.Failures()) == 0 {
		fmt.Fprintln(w, "No ROIs found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	first := true
	for key, r := range coll.All() {
		if !first {
			fmt.Fprintln(tw)
		}
		first = false
		outputROITable(tw, key, r)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return outputFailures(w, coll.Failures())
}

// outputROITable writes one ROI as label/value rows
func outputROITable(w io.Writer, key string, r *roi.ROI) {
	fmt.Fprintf(w, "Key:\t%s\n", key)
	fmt.Fprintf(w, "Name:\t%s\n", r.Name)
	fmt.Fprintf(w, "Type:\t%s\n", kindLabel(r))
	fmt.Fprintf(w, "Version:\t%d\n", r.Version)
	fmt.Fprintf(w, "Box:\t%s\n", formatBox(r.Box))

	b := r.Bounds()
	fmt.Fprintf(w, "Bounds:\t%.2f,%.2f %.2fx%.2f\n", b.X, b.Y, b.Width, b.Height)

	if n := len(r.Points()); n > 0 {
		fmt.Fprintf(w, "Points:\t%d%s\n", n, subPixelMark(r))
	}
	if r.Line != nil {
		fmt.Fprintf(w, "Line:\t(%.2f,%.2f) -> (%.2f,%.2f)\n", r.Line.X1, r.Line.Y1, r.Line.X2, r.Line.Y2)
	}
	if r.ArcAngles != nil {
		fmt.Fprintf(w, "Angle:\t%.2f\n", r.ArcAngles.Span())
	}
	if len(r.Children) > 0 {
		fmt.Fprintf(w, "Children:\t%d\n", len(r.Children))
	}
	if r.Position != nil {
		fmt.Fprintf(w, "Position:\t%s\n", formatPosition(r.Position))
	}
	if r.StrokeColor != nil {
		fmt.Fprintf(w, "Stroke:\t%s\n", r.StrokeColor.Hex())
	}
	if r.FillColor != nil {
		fmt.Fprintf(w, "Fill:\t%s\n", r.FillColor.Hex())
	}
	if r.Properties != "" {
		fmt.Fprintf(w, "Properties:\t%s\n", truncate(r.Properties, 60))
	}
	for _, note := range r.Notes {
		fmt.Fprintf(w, "Note:\t%s\n", note)
	}
}

// outputSummaryTable displays one line per ROI
func outputSummaryTable(w io.Writer, coll *roi.Collection) error {
	if coll.Len() == 0 && len(coll.Failures()) == 0 {
		fmt.Fprintln(w, "No ROIs found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tBOX\tPOINTS\tPOSITION")
	for key, r := range coll.All() {
		position := "-"
		if r.Position != nil {
			position = formatPosition(r.Position)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", key, kindLabel(r), formatBox(r.Box), len(r.Points()), position)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return outputFailures(w, coll.Failures())
}

// outputFailures lists the entries that could not be decoded
func outputFailures(w io.Writer, failures []roi.Failure) error {
	if len(failures) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%d entries failed:\n", len(failures))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tERROR")
	for _, f := range failures {
		fmt.Fprintf(tw, "%s\t%v\n", f.Name, f.Err)
	}
	return tw.Flush()
}

// outputSummaries displays catalog listings
func outputSummaries(w io.Writer, format string, summaries []storage.Summary) error {
	if format != "table" {
		return outputValue(w, format, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No collections found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tROIS\tFAILURES\tCREATED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Source, s.ROIs, s.Failures, s.Created.Format(time.RFC3339))
	}
	return tw.Flush()
}

func kindLabel(r *roi.ROI) string {
	if r.Subtype != roi.SubtypeNone {
		return r.Kind.String() + "/" + r.Subtype.String()
	}
	return r.Kind.String()
}

func subPixelMark(r *roi.ROI) string {
	if len(r.SubPixel) > 0 {
		return " (sub-pixel)"
	}
	return ""
}

func formatBox(b roi.Box) string {
	return fmt.Sprintf("%d,%d %dx%d", b.Left, b.Top, b.Width(), b.Height())
}

func formatPosition(p *roi.Position) string {
	if p.Channel == 0 && p.Slice == 0 && p.Frame == 0 {
		return fmt.Sprintf("%d", p.Position)
	}
	return fmt.Sprintf("c%d z%d t%d", p.Channel, p.Slice, p.Frame)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
