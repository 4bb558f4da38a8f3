// Command tripscan is a terminal client for planning a group trip:
// pick an origin, chat with the group, and browse the destinations the
// backend recommends from the conversation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/tripscan/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every command shares one app,
// set up before the command runs and closed after it.
func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
		a          = &app{}
	)

	root := &cobra.Command{
		Use:   "tripscan",
		Short: "Plan a group trip from your terminal",
		Long: `TripScan lets a group pick where to travel together.

Search for the city you are leaving from, talk it over in the shared
chat, and see which destinations fit the group best along with hotels
and flights.

Run without arguments to start the interactive interface.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(configPath, debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), a)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default tripscan.yaml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newCitiesCmd(a),
		newWhoamiCmd(a),
		newMessagesCmd(a),
		newSendCmd(a),
		newClearCmd(a),
		newRecommendCmd(a),
		newItineraryCmd(a),
		newConfigCmd(a),
	)

	return root
}

func runInteractive(ctx context.Context, a *app) error {
	model := ui.NewModel(ui.Deps{
		Directory:        a.directory,
		ChatClient:       a.client,
		Recommendations:  a.client,
		Itineraries:      a.client,
		User:             a.identity.Current(),
		PollInterval:     a.cfg.GetPollInterval(),
		TopN:             a.cfg.Recommendations.TopN,
		MaxConcurrency:   a.cfg.GetMaxConcurrency(),
		FallbackImageURL: a.cfg.Recommendations.FallbackImageURL,
		Logger:           a.logger,
	})

	a.logger.Info("starting interactive session", zap.String("backend", a.client.BaseURL()))

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}
