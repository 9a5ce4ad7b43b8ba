package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	domcheck "github.com/kailas-cloud/mastplan/internal/domain/check"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

// defaultColumns are the CAOM columns shown for fetched observations.
var defaultColumns = []string{"obs_id", "target_name", "instrument_name", "proposal_id", "t_exptime"}

// selectColumns projects observations onto cols; an empty cols keeps every column.
func selectColumns(obs []result.Observation, cols []string) []result.Observation {
	if len(cols) == 0 {
		return obs
	}
	out := make([]result.Observation, len(obs))
	for i, o := range obs {
		out[i] = o.Select(cols...)
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResolution(w io.Writer, r *sky.Resolution) error {
	table := tablewriter.NewWriter(w)
	table.Header("Query", "Canonical name", "RA", "Dec", "Resolver", "Type")
	if err := table.Append(
		r.Query, r.CanonicalName,
		formatDeg(r.Position.RA()), formatDeg(r.Position.Dec()),
		r.Resolver, r.ObjectType,
	); err != nil {
		return fmt.Errorf("render resolution: %w", err)
	}
	return table.Render()
}

// printResult prints the count line and, for full fetches, one row per observation
// with its separation from center when s_ra/s_dec are present.
func printResult(w io.Writer, res *result.Result, center sky.Position, cols []string) error {
	fmt.Fprintf(w, "%d observation(s) near %s [%s]\n", res.Count(), center, res.Branch())
	if !res.HasRecords() {
		if res.Branch() == result.BranchTooLarge {
			fmt.Fprintln(w, "Too many matches to list; narrow the radius or add filters.")
		}
		return nil
	}

	header := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		header = append(header, c)
	}
	header = append(header, "sep_arcsec")

	table := tablewriter.NewWriter(w)
	table.Header(header...)
	for _, o := range res.Observations() {
		row := make([]any, 0, len(cols)+1)
		for _, c := range cols {
			row = append(row, o.String(c))
		}
		row = append(row, separation(o, center))
		if err := table.Append(row...); err != nil {
			return fmt.Errorf("render observations: %w", err)
		}
	}
	return table.Render()
}

func printReport(w io.Writer, rep *domcheck.Report) error {
	fmt.Fprintf(w, "run %s, radius %s arcsec\n", rep.RunID, strconv.FormatFloat(rep.RadiusArcsec, 'f', -1, 64))

	table := tablewriter.NewWriter(w)
	table.Header("Target", "Status", "Canonical name", "RA", "Dec", "Count", "Detail")
	for i := range rep.Outcomes {
		o := &rep.Outcomes[i]
		if o.Status() == domcheck.StatusError {
			if err := table.Append(o.Target(), string(o.Status()), "", "", "", "", o.Err().Error()); err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			continue
		}
		res, r := o.Resolution(), o.Result()
		if err := table.Append(
			o.Target(), string(o.Status()), res.CanonicalName,
			formatDeg(res.Position.RA()), formatDeg(res.Position.Dec()),
			strconv.FormatInt(r.Count(), 10), string(r.Branch()),
		); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "planned: %d, clear: %d, errors: %d\n",
		rep.Count(domcheck.StatusPlanned), rep.Count(domcheck.StatusClear), rep.Count(domcheck.StatusError))
	return nil
}

func separation(o result.Observation, center sky.Position) string {
	ra, okRA := o.Float("s_ra")
	dec, okDec := o.Float("s_dec")
	if !okRA || !okDec {
		return ""
	}
	p, err := sky.NewPosition(ra, dec)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(sky.SeparationArcsec(center, p), 'f', 2, 64)
}

func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

type reportItemJSON struct {
	Target        string   `json:"target"`
	Status        string   `json:"status"`
	CanonicalName string   `json:"canonical_name,omitempty"`
	RA            *float64 `json:"ra,omitempty"`
	Dec           *float64 `json:"dec,omitempty"`
	Count         *int64   `json:"count,omitempty"`
	Branch        string   `json:"branch,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func reportJSON(rep *domcheck.Report) map[string]any {
	items := make([]reportItemJSON, len(rep.Outcomes))
	for i := range rep.Outcomes {
		o := &rep.Outcomes[i]
		item := reportItemJSON{Target: o.Target(), Status: string(o.Status())}
		if o.Status() == domcheck.StatusError {
			item.Error = o.Err().Error()
			items[i] = item
			continue
		}
		res, r := o.Resolution(), o.Result()
		ra, dec, count := res.Position.RA(), res.Position.Dec(), r.Count()
		item.CanonicalName = res.CanonicalName
		item.RA, item.Dec, item.Count = &ra, &dec, &count
		item.Branch = string(r.Branch())
		items[i] = item
	}
	return map[string]any{
		"run_id":        rep.RunID,
		"radius_arcsec": rep.RadiusArcsec,
		"items":         items,
	}
}
