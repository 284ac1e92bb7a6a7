package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/orchestrator"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the festival's drinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(cmd.Context()); err != nil {
				return err
			}

			if err := a.orch.SetCriteria(criteriaFromFlags(cmd)); err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("sort"); v != "" {
				key, err := catalog.ParseSortKey(v)
				if err != nil {
					return err
				}
				if err := a.orch.SetSortKey(key); err != nil {
					return err
				}
			}

			drinks := a.orch.VisibleDrinks()
			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				return p.json(drinks)
			}
			log := a.orch.Log()
			rows := make([][]string, 0, len(drinks))
			for _, d := range drinks {
				rows = append(rows, []string{
					d.ID,
					logMark(log[d.ID]),
					d.Name,
					d.Style,
					formatABV(d.ABV),
					d.Brewery,
					availabilityLabel(d.Availability),
				})
			}
			p.table([]string{"ID", "LOG", "NAME", "STYLE", "ABV", "BREWERY", "AVAILABILITY"}, rows)
			return nil
		},
	}

	cmd.Flags().String("category", "", "only drinks in this category (beer, cider, ...)")
	cmd.Flags().StringSlice("style", nil, "only drinks in these styles (repeatable)")
	cmd.Flags().Bool("favorites", false, "only drinks on the tasting log")
	cmd.Flags().Bool("hide-unavailable", false, "hide drinks that are out")
	cmd.Flags().String("search", "", "substring match on name, brewery, style, and notes")
	cmd.Flags().String("sort", "", "sort key: name_asc, name_desc, abv_high, abv_low, brewery, or style")
	return cmd
}

// criteriaFromFlags turns the list flags into a criteria patch. Only
// flags the user actually set are patched, so defaults stay untouched.
func criteriaFromFlags(cmd *cobra.Command) orchestrator.CriteriaPatch {
	var patch orchestrator.CriteriaPatch
	if cmd.Flags().Changed("category") {
		v, _ := cmd.Flags().GetString("category")
		patch.Category = &v
	}
	if cmd.Flags().Changed("style") {
		v, _ := cmd.Flags().GetStringSlice("style")
		patch.Styles = &v
	}
	if cmd.Flags().Changed("favorites") {
		v, _ := cmd.Flags().GetBool("favorites")
		patch.FavoritesOnly = &v
	}
	if cmd.Flags().Changed("hide-unavailable") {
		v, _ := cmd.Flags().GetBool("hide-unavailable")
		patch.HideUnavailable = &v
	}
	if cmd.Flags().Changed("search") {
		v, _ := cmd.Flags().GetString("search")
		patch.Query = &v
	}
	return patch
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <drink-id>",
		Short: "Show one drink in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(cmd.Context()); err != nil {
				return err
			}

			var drink *catalog.Drink
			for _, d := range a.orch.VisibleDrinks() {
				if d.ID == args[0] {
					drink = &d
					break
				}
			}
			entry, logged := a.orch.Favorite(args[0])
			if drink == nil && !logged {
				return fmt.Errorf("drink %q not found in %s", args[0], a.festival.ID)
			}

			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				out := struct {
					Drink *catalog.Drink   `json:"drink,omitempty"`
					Log   *tastingLogEntry `json:"log,omitempty"`
				}{Drink: drink}
				if logged {
					out.Log = newTastingLogEntry(entry)
				}
				return p.json(out)
			}

			var pairs [][2]string
			if drink != nil {
				pairs = append(pairs,
					[2]string{"ID", drink.ID},
					[2]string{"Name", drink.Name},
					[2]string{"Category", drink.Category},
					[2]string{"Style", drink.Style},
					[2]string{"ABV", formatABV(drink.ABV)},
					[2]string{"Brewery", drink.Brewery},
					[2]string{"Location", drink.BreweryLocation},
					[2]string{"Availability", availabilityLabel(drink.Availability)},
				)
				if drink.Rated() {
					pairs = append(pairs, [2]string{"Rating", fmt.Sprintf("%d/5", drink.Rating)})
				}
				if drink.Notes != "" {
					pairs = append(pairs, [2]string{"Description", drink.Notes})
				}
			} else {
				pairs = append(pairs,
					[2]string{"ID", args[0]},
					[2]string{"Name", "(no longer in the catalog)"},
				)
			}
			if logged {
				pairs = append(pairs,
					[2]string{"Log status", string(entry.Status)},
					[2]string{"Tries", fmt.Sprintf("%d", len(entry.Tries))},
				)
				for _, ts := range entry.Tries {
					pairs = append(pairs, [2]string{"  tried", formatTime(ts)})
				}
				if entry.Notes != "" {
					pairs = append(pairs, [2]string{"My notes", entry.Notes})
				}
			}
			p.kv(pairs)
			return nil
		},
	}
}
