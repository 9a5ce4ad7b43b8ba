package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type checkFlags struct {
	fromFile  string
	radius    float64
	countOnly bool
	filters   filterFlags
}

func newCheckCmd(a *app, root *rootFlags) *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check [NAME...]",
		Short: "Check a list of targets for already planned observations",
		Long: `Resolves each target and runs a count-first search around it, one target
at a time. A failing target is reported and the run continues.`,
		Example: `  mastplan check Trappist-1 "WASP-39" "K2-18"
  mastplan check --from targets.txt --radius 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := collectNames(args, f.fromFile)
			if err != nil {
				return err
			}

			radius := f.radius
			if radius == 0 {
				radius = a.cfg.Search.DefaultRadiusArcsec
			}
			spec, err := f.filters.spec()
			if err != nil {
				return err
			}

			report, err := a.check.Run(cmd.Context(), names, radius, spec, f.countOnly)
			if err != nil {
				return err
			}
			if root.jsonOut {
				return printJSON(cmd.OutOrStdout(), reportJSON(&report))
			}
			return printReport(cmd.OutOrStdout(), &report)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.fromFile, "from", "f", "", "read target names from a file, one per line (# comments)")
	fl.Float64VarP(&f.radius, "radius", "r", 0, "cone radius in arcseconds (default from config)")
	fl.BoolVar(&f.countOnly, "count-only", true, "count only, never fetch records")
	fl.StringArrayVar(&f.filters.equals, "filter", nil, "param=value[,value...] (repeatable, replaces defaults)")
	fl.StringArrayVar(&f.filters.ranges, "range", nil, "param=min:max numeric range (repeatable)")
	fl.BoolVar(&f.filters.noDefault, "no-default-filters", false, "search without any filters")
	return cmd
}

// collectNames merges positional names with names read from path.
func collectNames(args []string, path string) ([]string, error) {
	names := append([]string(nil), args...)
	if path == "" {
		return names, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets: %w", err)
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return names, nil
}
