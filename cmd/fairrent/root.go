package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fairrent/internal/config"
	"fairrent/internal/logger"
	"fairrent/internal/model"
	"fairrent/internal/render"
	"fairrent/internal/service"
)

// app carries the global flags and what PersistentPreRunE builds from them
type app struct {
	catalogPath  string
	valuationURL string
	assistantURL string
	persona      string
	style        string
	width        int
	verbose      bool

	// zero leaves the transport default
	valuationTimeout time.Duration
	assistantTimeout time.Duration

	logger *zap.Logger
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "fairrent",
		Short: "Fair Rent Advisor - estimate, compare and negotiate Indian rentals",
		Long: `fairrent talks to the same valuation and assistant services as the web
advisor. It estimates the fair rent of a property, compares two properties by
rent per square foot and opens a negotiation chat with the strategist.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			a.logger = logger.New(level, "console")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.catalogPath, "catalog", cfg.Catalog.Path, "path of the city/locality mapping JSON")
	flags.StringVar(&a.valuationURL, "valuation-url", cfg.Valuation.URL, "valuation service endpoint")
	flags.StringVar(&a.assistantURL, "assistant-url", cfg.Assistant.URL, "assistant service endpoint")
	flags.StringVar(&a.persona, "persona", cfg.Assistant.Persona, "negotiation persona sent to the assistant (tenant or owner)")
	flags.StringVar(&a.style, "style", "", "glamour style for replies (dark, light, notty), detected when empty")
	flags.IntVar(&a.width, "width", 80, "word wrap width of rendered replies")
	flags.DurationVar(&a.valuationTimeout, "valuation-timeout", config.Seconds(cfg.Valuation.Timeout), "timeout of valuation requests, 0 for none")
	flags.DurationVar(&a.assistantTimeout, "assistant-timeout", config.Seconds(cfg.Assistant.Timeout), "timeout of assistant requests, 0 for none")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.citiesCmd(),
		a.localitiesCmd(),
		a.estimateCmd(),
		a.compareCmd(),
		a.chatCmd(),
	)
	return root
}

func (a *app) catalog() (*service.LocationCatalog, error) {
	return service.LoadLocationCatalog(a.catalogPath)
}

func (a *app) renderer() (*render.TerminalRenderer, error) {
	return render.NewTerminalRenderer(a.style, a.width)
}

// newSession builds a session against the configured remote services
func (a *app) newSession() *service.Session {
	return service.NewSession(uuid.NewString(), service.Dependencies{
		Valuation: service.NewHTTPValuationBackend(a.valuationURL, a.valuationTimeout),
		Assistant: service.NewHTTPAssistantBackend(a.assistantURL, a.assistantTimeout),
		Persona:   a.persona,
		Logger:    a.logger,
	})
}

// bindProperty registers the flags describing one property, each name
// prefixed with prefix
func bindProperty(cmd *cobra.Command, prefix string, in *model.PropertyInput) {
	flags := cmd.Flags()
	flags.StringVar(&in.City, prefix+"city", "", "city, e.g. Mumbai")
	flags.StringVar(&in.Locality, prefix+"locality", "", "locality within the city")
	flags.StringVar((*string)(&in.BHK), prefix+"bhk", "", "number of bedrooms")
	flags.StringVar((*string)(&in.Area), prefix+"area", "", "carpet area in sqft, 1000 when unset")
	flags.StringVar(&in.Furnishing, prefix+"furnishing", "", "Unfurnished, Semi-Furnished or Furnished")
}
