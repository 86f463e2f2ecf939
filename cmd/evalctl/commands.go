package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/report"
	"github.com/godilite/wellness-eval/internal/service"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalogue schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store applies the schema.
			_, cleanup, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			fmt.Fprintf(opts.out, "schema up to date at %s\n", opts.v.GetString("db"))
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import entities from a YAML fixture, replacing existing copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := loadSeedFile(args[0])
			if err != nil {
				return err
			}
			svc, cleanup, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			for _, e := range entities {
				if err := svc.ImportEntity(cmd.Context(), e); err != nil {
					return fmt.Errorf("import %s: %w", e.ID, err)
				}
			}
			fmt.Fprintf(opts.out, "imported %d entities\n", len(entities))
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var tier string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var t catalog.Tier
			if tier != "" {
				var err error
				if t, err = catalog.ParseTier(tier); err != nil {
					return err
				}
			}
			svc, cleanup, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := svc.ListEntities(cmd.Context(), t)
			if err != nil {
				return err
			}
			return opts.emit(list, func(r *report.Renderer) error { return r.Entities(list) })
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "Only list entities of this tier")
	return cmd
}

func newScorecardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scorecard <id>",
		Short: "Show an entity's weighted dimension scorecard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			sc, err := svc.GetScorecard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.emit(sc, func(r *report.Renderer) error { return r.Scorecard(sc) })
		},
	}
}

func newOutcomesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "outcomes <id>",
		Short: "Summarise an entity's guest reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.GetOutcomeSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.emit(res, func(r *report.Renderer) error { return r.Outcomes(res) })
		},
	}
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var (
		maxEntities   int
		offeringLimit int
		showAll       bool
	)
	cmd := &cobra.Command{
		Use:   "compare <id> <id>...",
		Short: "Compare entities side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := opts.openService(cmd.Context(),
				service.WithMaxEntities(maxEntities),
				service.WithOfferingLimit(offeringLimit),
			)
			if err != nil {
				return err
			}
			defer cleanup()

			cmp, err := svc.Compare(cmd.Context(), args, service.CompareOptions{ShowAllOfferings: showAll})
			if err != nil {
				return err
			}
			return opts.emit(cmp, func(r *report.Renderer) error { return r.Comparison(cmp) })
		},
	}
	cmd.Flags().IntVar(&maxEntities, "max", 4, "Maximum entities in one comparison")
	cmd.Flags().IntVar(&offeringLimit, "offering-limit", 8, "Offerings shown before collapsing")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "Show every offering")
	return cmd
}
