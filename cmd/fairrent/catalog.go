package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities known to the location catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, city := range catalog.Cities() {
				fmt.Fprintln(out, city)
			}
			return nil
		},
	}
}

func (a *app) localitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "localities [city]",
		Short: "List the localities of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			city, ok := catalog.ResolveCity(args[0])
			if !ok {
				return fmt.Errorf("unknown city %q", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(city))
			for _, loc := range catalog.LocalitiesFor(city) {
				fmt.Fprintln(out, "  "+loc)
			}
			return nil
		},
	}
}
