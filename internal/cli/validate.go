package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/support"
	"github.com/spf13/cobra"
)

func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a component file without sequencing it",
		Long: `Validate loads component records, reports every rejected record and the
support diagnostics (floating components, support cycles), and exits non-zero
when any record was rejected. With --strict, diagnostics also fail the check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout(), strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat floating components and support cycles as errors")
	return cmd
}

func (c *CLI) runValidate(_ context.Context, path string, stdin io.Reader, stdout io.Writer, strict bool) error {
	recs, err := loadRecords(path, stdin)
	if err != nil {
		return err
	}
	k, err := c.cfg.NewKernel()
	if err != nil {
		return err
	}

	store, rejected := component.NewStore(k, recs)
	opts := c.cfg.Analysis()
	adj := support.Build(store, support.Options{
		Tolerance:        opts.SupportTolerance,
		XYEpsilon:        opts.XYEpsilon,
		RequireXYOverlap: opts.RequireXYOverlap,
		UseIndex:         opts.SpatialIndex,
	})
	diag := support.Diagnose(store, adj, opts.SupportTolerance)

	fmt.Fprintf(stdout, "%d records, %d accepted, %d rejected, %d support edges\n",
		len(recs), store.Len(), len(rejected), adj.Edges())
	for _, ie := range rejected {
		fmt.Fprintf(stdout, "  rejected: %v\n", ie)
	}
	if n := store.UnknownCategories(); n > 0 {
		fmt.Fprintf(stdout, "  %d components with unknown category\n", n)
	}
	for _, id := range diag.Floating {
		fmt.Fprintf(stdout, "  floating: %v\n", store.Get(id))
	}
	for _, cycle := range diag.Cycles {
		fmt.Fprintf(stdout, "  support cycle: %v\n", cycle)
	}

	switch {
	case len(rejected) > 0:
		return fmt.Errorf("%d of %d records rejected", len(rejected), len(recs))
	case strict && !diag.Empty():
		return fmt.Errorf("%d floating components, %d support cycles", len(diag.Floating), len(diag.Cycles))
	}
	c.Logger.Info("Component file is valid", "path", path)
	return nil
}
