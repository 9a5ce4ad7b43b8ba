package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

type searchFlags struct {
	target    string
	ra, dec   float64
	radius    float64
	countOnly bool
	columns   []string
	filters   filterFlags
}

func newSearchCmd(a *app, root *rootFlags) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Count-first cone search for planned observations",
		Long: `Counts matching observations in a cone, then lists them when the count
is between 1 and the configured full-fetch limit.

Without --filter the search is restricted to planned JWST observations
(calib_level=-1, obs_collection=JWST).`,
		Example: `  mastplan search --target Trappist-1 --radius 10
  mastplan search --ra 346.62233 --dec -5.04144 --count-only
  mastplan search --target "NGC 1333" --filter obs_collection=JWST --filter instrument_name=NIRSPEC/IFU`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSearch(cmd, root, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.target, "target", "t", "", "object name to resolve")
	fl.Float64Var(&f.ra, "ra", 0, "right ascension in degrees")
	fl.Float64Var(&f.dec, "dec", 0, "declination in degrees")
	fl.Float64VarP(&f.radius, "radius", "r", 0, "cone radius in arcseconds (default from config)")
	fl.BoolVar(&f.countOnly, "count-only", false, "return the count without records")
	fl.StringSliceVar(&f.columns, "columns", defaultColumns, "columns to print for fetched observations")
	fl.StringArrayVar(&f.filters.equals, "filter", nil, "param=value[,value...] (repeatable, replaces defaults)")
	fl.StringArrayVar(&f.filters.ranges, "range", nil, "param=min:max numeric range (repeatable)")
	fl.BoolVar(&f.filters.noDefault, "no-default-filters", false, "search without any filters")
	cmd.MarkFlagsMutuallyExclusive("target", "ra")
	cmd.MarkFlagsMutuallyExclusive("target", "dec")
	cmd.MarkFlagsRequiredTogether("ra", "dec")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, root *rootFlags, f *searchFlags) error {
	ctx := cmd.Context()

	var pos sky.Position
	switch {
	case f.target != "":
		res, err := a.resolve.ResolveDetailed(ctx, f.target)
		if err != nil {
			return err
		}
		pos = res.Position
	case cmd.Flags().Changed("ra"):
		p, err := sky.NewPosition(f.ra, f.dec)
		if err != nil {
			return err
		}
		pos = p
	default:
		return errors.New("either --target or --ra/--dec is required")
	}

	radius := f.radius
	if radius == 0 {
		radius = a.cfg.Search.DefaultRadiusArcsec
	}

	spec, err := f.filters.spec()
	if err != nil {
		return err
	}
	req, err := request.New(pos, radius, spec, f.countOnly)
	if err != nil {
		return err
	}

	res, err := a.search.Search(ctx, &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if root.jsonOut {
		out := map[string]any{
			"ra":            pos.RA(),
			"dec":           pos.Dec(),
			"radius_arcsec": radius,
			"count":         res.Count(),
			"branch":        res.Branch(),
		}
		if res.HasRecords() {
			// JSON keeps every column unless --columns is given explicitly.
			var cols []string
			if cmd.Flags().Changed("columns") {
				cols = f.columns
			}
			out["observations"] = selectColumns(res.Observations(), cols)
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
	return printResult(cmd.OutOrStdout(), &res, pos, f.columns)
}
