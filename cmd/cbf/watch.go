package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/orchestrator"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow catalog and tasting log changes until interrupted",
		Long:  "Activate the festival and stay running. The refresh schedule from the config and the source's own change detection keep the catalog current; every state change is printed as it happens.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			// Subscribe before activating so the activation events print too.
			token := a.orch.Subscribe(func(e orchestrator.Event) {
				printEvent(a, e)
			})
			defer a.orch.Unsubscribe(token)

			ctx := cmd.Context()
			if err := a.activate(ctx); err != nil {
				return err
			}

			fmt.Printf("watching %s, interrupt to stop\n", a.festival.ID)
			<-ctx.Done()
			return nil
		},
	}
}

// printEvent renders one orchestrator event as a log line. Callbacks
// run after the state update, so counts read here are current.
func printEvent(a *app, e orchestrator.Event) {
	line := fmt.Sprintf("%s  %-19s", time.Now().Format("15:04:05"), e.Kind)
	switch e.Kind {
	case orchestrator.EventFestivalActivated, orchestrator.EventCatalogRefreshed:
		line += fmt.Sprintf("  drinks=%d", len(a.orch.VisibleDrinks()))
	case orchestrator.EventLogChanged:
		line += "  drink=" + e.DrinkID
	}
	if e.Err != nil {
		line += "  error=" + e.Err.Error()
	}
	fmt.Println(line)
}
