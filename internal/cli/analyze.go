package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chazu/liftplan/pkg/analysis"
	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/config"
	"github.com/chazu/liftplan/pkg/export"
	"github.com/chazu/liftplan/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type analyzeOptions struct {
	out             string
	name            string
	dot             string
	svg             string
	detailed        bool
	policy          string
	kernel          string
	metricsTextfile string
}

func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Generate the disassembly and assembly sequence for a component file",
		Long: `Analyze loads component records (JSON, or a .lisp scene), derives which
components rest on which, and groups them into rounds that can be lifted in
parallel. The result document is written as JSON.

Use "-" as the file to read JSON records from stdin.`,
		Example: `  liftplan analyze tower.json -o plan.json
  liftplan analyze frame.lisp --svg support.svg --detailed
  liftplan analyze tower.json --policy fewest-dependents --kernel sdfx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "output file for the result document (default: stdout)")
	cmd.Flags().StringVar(&opts.name, "name", "", "project name recorded in the document (default: input file name)")
	cmd.Flags().StringVar(&opts.dot, "dot", "", "also write the support graph as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "also render the support graph as SVG")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include category, level and elevations in graph labels")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "deadlock policy (overrides config)")
	cmd.Flags().StringVar(&opts.kernel, "kernel", "", "solid kernel: boxset or sdfx (overrides config)")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, path string, stdin io.Reader, stdout io.Writer, opts analyzeOptions) error {
	cfg := c.cfg
	if opts.policy != "" {
		cfg.Sequence.DeadlockPolicy = opts.policy
	}
	if opts.kernel != "" {
		cfg.Kernel.Name = opts.kernel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	recs, err := loadRecords(path, stdin)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %d records from %s", len(recs), path))

	prog = newProgress(c.Logger)
	res, err := runAnalysis(ctx, cfg, recs, c.zlog)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Sequenced %d components into %d groups", res.Store.Len(), len(res.Sequence.Disassembly)))
	c.summarize(res)

	name := opts.name
	if name == "" {
		name = projectName(path)
	}
	if err := writeDocument(opts.out, stdout, export.NewDocument(res, name)); err != nil {
		return err
	}
	if opts.out != "" {
		c.Logger.Info("Wrote result document", "path", opts.out)
	}

	if err := c.writeGraph(ctx, res, opts); err != nil {
		return err
	}

	textfile := opts.metricsTextfile
	if textfile == "" {
		textfile = cfg.Metrics.Textfile
	}
	if textfile != "" {
		if err := metrics.WriteTextfile(textfile); err != nil {
			return err
		}
		c.Logger.Debug("Wrote metrics textfile", "path", textfile)
	}
	return nil
}

// runAnalysis builds the configured kernel and runs the pipeline.
func runAnalysis(ctx context.Context, cfg config.Config, recs []component.Record, logger *zap.Logger) (*analysis.Result, error) {
	k, err := cfg.NewKernel()
	if err != nil {
		return nil, err
	}
	return analysis.Run(ctx, k, recs, cfg.Analysis(), logger)
}

func (c *CLI) summarize(res *analysis.Result) {
	for _, ie := range res.InputErrors {
		c.Logger.Warn("Rejected record", "err", ie)
	}
	for _, lb := range res.LoadBearing {
		c.Logger.Warn("Rejected record carries accepted components", "id", lb.Rejected, "carries", lb.Carries)
	}
	if d := res.Diagnostics; len(d.Floating) > 0 {
		c.Logger.Warn("Floating components", "ids", d.Floating)
	}
	for _, ev := range res.Sequence.Report.Deadlocks {
		c.Logger.Warn("Deadlock broken", "event", ev.String())
	}
	for _, f := range res.Sequence.Report.Failures {
		c.Logger.Warn("Clearance test failed", "round", f.Round, "id", f.Component, "err", f.Err)
	}
}

func writeDocument(path string, stdout io.Writer, doc *export.Document) error {
	if path == "" || path == "-" {
		return export.Write(stdout, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *CLI) writeGraph(ctx context.Context, res *analysis.Result, opts analyzeOptions) error {
	if opts.dot == "" && opts.svg == "" {
		return nil
	}
	dot := export.ToDOT(res, export.DOTOptions{Detailed: opts.detailed, RankByGroup: true})
	if opts.dot != "" {
		if err := os.WriteFile(opts.dot, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.dot, err)
		}
		c.Logger.Info("Wrote support graph", "path", opts.dot)
	}
	if opts.svg != "" {
		prog := newProgress(c.Logger)
		svg, err := export.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svg, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.svg, err)
		}
		prog.done("Rendered " + opts.svg)
	}
	return nil
}
