package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

func (a *app) estimateCmd() *cobra.Command {
	var in model.PropertyInput
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the fair rent of a property",
		Example: `  fairrent estimate --city Mumbai --locality Powai --bhk 2 --area 800
  fairrent estimate --city pune --locality baner --bhk 1 --furnishing furnished
  fairrent estimate --city Mumbai --locality Powai --bhk 2 --asking 70000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			q, err := catalog.ResolveInput(in, true)
			if err != nil {
				return err
			}
			asking, err := in.Asking()
			if err != nil {
				return err
			}

			session := a.newSession()
			if err := a.estimate(cmd, session, q); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEstimate(q.WithDefaults(), session.Valuation.ViewWithAsking(asking)))
			return nil
		},
	}
	bindProperty(cmd, "", &in)
	cmd.Flags().StringVar((*string)(&in.AskingRent), "asking", "", "owner's asking rent per month, graded against the estimate")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("bhk")
	return cmd
}

func (a *app) estimate(cmd *cobra.Command, session *service.Session, q model.PropertyQuery) error {
	a.logger.Debug("requesting estimate",
		zap.String("city", q.City),
		zap.String("locality", q.Locality),
		zap.Int("bhk", q.BedroomCount))
	if _, err := session.Valuation.RequestEstimate(cmd.Context(), q); err != nil {
		return fmt.Errorf("valuation failed: %w", err)
	}
	return nil
}
