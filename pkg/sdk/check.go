package mastplan

import (
	"context"
	"fmt"
	"time"

	domcheck "github.com/kailas-cloud/mastplan/internal/domain/check"
)

// Check resolves and searches each name in order. Per-target failures are
// reported in the item; only a canceled context stops the run, in which case
// the partial report is returned with the error.
func (c *Client) Check(
	ctx context.Context, names []string, radiusArcsec float64, opts *SearchOptions,
) (rep CheckReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("check", start, err, "targets", len(names)) }()

	if opts == nil {
		opts = &SearchOptions{}
	}
	spec, err := toSpec(opts.Filters, opts.NoDefaultFilters)
	if err != nil {
		return CheckReport{}, err
	}

	r, err := c.checkSvc.Run(ctx, names, radiusArcsec, spec, opts.CountOnly)
	rep = fromReport(&r)
	if err != nil {
		return rep, fmt.Errorf("check: %w", err)
	}
	return rep, nil
}

func fromReport(r *domcheck.Report) CheckReport {
	out := CheckReport{RunID: r.RunID, RadiusArcsec: r.RadiusArcsec, Items: make([]CheckItem, len(r.Outcomes))}
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		item := CheckItem{Target: o.Target(), Status: CheckStatus(o.Status()), Err: o.Err()}
		if o.Status() != domcheck.StatusError {
			res, sr := o.Resolution(), o.Result()
			item.Resolution = fromResolution(&res)
			item.Result = fromResult(&sr)
		}
		out.Items[i] = item
	}
	return out
}
