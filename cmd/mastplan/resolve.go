package main

import (
	"github.com/spf13/cobra"
)

func newResolveCmd(a *app, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve NAME",
		Short: "Resolve an object name to ICRS coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve.ResolveDetailed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"query":          res.Query,
					"canonical_name": res.CanonicalName,
					"ra":             res.Position.RA(),
					"dec":            res.Position.Dec(),
					"resolver":       res.Resolver,
					"object_type":    res.ObjectType,
				})
			}
			return printResolution(cmd.OutOrStdout(), &res)
		},
	}
}
