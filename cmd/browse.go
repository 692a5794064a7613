package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ethanolivertroy/annexa/internal/advisor"
	"github.com/ethanolivertroy/annexa/internal/catalog"
	"github.com/ethanolivertroy/annexa/internal/report"
	"github.com/ethanolivertroy/annexa/internal/tui"
)

func newBrowseCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the assessment results interactively",
		Args:  cobra.NoArgs,
		RunE: stageCommand(opts, "browse", func(ctx context.Context, e *env) error {
			r, err := e.ws.ReadReport()
			if err != nil {
				return err
			}
			return tui.Run(r, e.ws.Dir)
		}),
	}
	return cmd
}

func newAdviseCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Ask a local Ollama model for a remediation plan covering the gaps",
		Long: `advise sends the gaps from results.json to a local Ollama model and prints
a remediation plan. It is advisory only and never changes the results.

The model and server come from advisor.model / advisor.url in the config file
or ANNEXA_ADVISOR_MODEL / ANNEXA_ADVISOR_URL (default llama3.2 at
http://localhost:11434). Start the server with "ollama serve".`,
		Args: cobra.NoArgs,
		RunE: stageCommand(opts, "advise", func(ctx context.Context, e *env) error {
			r, err := e.ws.ReadReport()
			if err != nil {
				return err
			}
			a, err := advisor.New(advisor.FromConfig(e.cfg.Advisor), e.log)
			if err != nil {
				return err
			}
			plan, err := a.Advise(ctx, r)
			if err != nil {
				return err
			}
			out, err := tui.RenderMarkdown(plan, opts.width, opts.style)
			if err != nil {
				// Fall back to raw Markdown
				out = plan
			}
			fmt.Fprintln(e.out, out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&opts.style, "style", "dracula", "glamour style for the plan: dark, light, dracula, notty")
	cmd.Flags().IntVar(&opts.width, "width", 80, "wrap width")
	return cmd
}

func newSummaryCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the Markdown summary of the last check",
		Args:  cobra.NoArgs,
		RunE: stageCommand(opts, "summary", func(ctx context.Context, e *env) error {
			r, err := e.ws.ReadReport()
			if err != nil {
				return err
			}
			out, err := tui.RenderMarkdown(report.Markdown(r), opts.width, opts.style)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&opts.style, "style", "dracula", "glamour style: dark, light, dracula, notty")
	cmd.Flags().IntVar(&opts.width, "width", 100, "wrap width")
	return cmd
}

func newCatalogCommand() *cobra.Command {
	var (
		category string
		asYAML   bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the built-in Annex A catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			controls := catalog.Default().ListByCategory(category)
			out := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(controls); err != nil {
					return err
				}
				return enc.Close()
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tWEIGHT\tEVIDENCE")
			for _, c := range controls {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d\n", c.ID, c.Title, c.Category, c.RiskWeight, len(c.RequiredEvidence))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only controls whose category contains this text")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML (usable as a --catalog file)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "annexa %s\n", Version)
		},
	}
}
