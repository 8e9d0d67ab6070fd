package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

func (a *app) compareCmd() *cobra.Command {
	var inA, inB model.PropertyInput
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two properties by estimated rent per square foot",
		Long: `compare runs the local heuristic only. Each property is given by flags
prefixed with a- or b-; the one with the lower rent per sqft wins and ties go to A.`,
		Example: `  fairrent compare --a-city Mumbai --a-bhk 2 --a-area 800 --a-furnishing Furnished \
    --b-city Pune --b-bhk 1 --b-area 1000 --b-furnishing Unfurnished`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			qa, err := catalog.ResolveInput(inA, false)
			if err != nil {
				return fmt.Errorf("property A: %w", err)
			}
			qb, err := catalog.ResolveInput(inB, false)
			if err != nil {
				return fmt.Errorf("property B: %w", err)
			}

			view := service.ComparisonView(service.Compare(qa, qb))

			r, err := a.renderer()
			if err != nil {
				return err
			}
			verdict, err := r.Markdown(view.Verdict)
			if err != nil {
				verdict = r.Literal(view.Verdict)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top,
				renderCard(view.Cards[0], qa),
				" ",
				renderCard(view.Cards[1], qb),
			))
			fmt.Fprint(out, verdict)
			return nil
		},
	}
	bindProperty(cmd, "a-", &inA)
	bindProperty(cmd, "b-", &inB)
	for _, name := range []string{"a-city", "a-bhk", "b-city", "b-bhk"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
