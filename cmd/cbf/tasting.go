package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

func newTastingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasting",
		Short: "Manage the tasting log",
	}
	cmd.AddCommand(
		newTastingShowCmd(),
		newTastingFavoriteCmd(),
		newTastingTastedCmd(),
		newTastingUntryCmd(),
		newTastingNotesCmd(),
		newTastingClearCmd(),
	)
	return cmd
}

// tastingLogEntry is the JSON view of a tasting-log item.
type tastingLogEntry struct {
	DrinkID   string      `json:"drink_id"`
	Status    string      `json:"status"`
	Tries     []time.Time `json:"tries,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newTastingLogEntry(it tastinglog.Item) *tastingLogEntry {
	return &tastingLogEntry{
		DrinkID:   it.DrinkID,
		Status:    string(it.Status),
		Tries:     it.Tries,
		Notes:     it.Notes,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func newTastingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the festival's tasting log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(cmd.Context()); err != nil {
				return err
			}

			log := a.orch.Log()
			ids := make([]string, 0, len(log))
			for id := range log {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				entries := make([]*tastingLogEntry, 0, len(ids))
				for _, id := range ids {
					entries = append(entries, newTastingLogEntry(log[id]))
				}
				return p.json(entries)
			}

			// Names come from the catalog; entries survive drinks
			// vanishing from the feed, so a name can be missing.
			names := make(map[string]string)
			for _, d := range a.orch.VisibleDrinks() {
				names[d.ID] = d.Name
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				it := log[id]
				name := names[id]
				if name == "" {
					name = "(no longer in the catalog)"
				}
				last := "-"
				if n := len(it.Tries); n > 0 {
					last = formatTime(it.Tries[n-1])
				}
				rows = append(rows, []string{
					id,
					name,
					string(it.Status),
					fmt.Sprintf("%d", len(it.Tries)),
					last,
					it.Notes,
				})
			}
			p.table([]string{"ID", "NAME", "STATUS", "TRIES", "LAST TRY", "NOTES"}, rows)
			return nil
		},
	}
}

func newTastingFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <drink-id>",
		Short: "Add a drink to the tasting log, or remove an untasted one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(cmd.Context()); err != nil {
				return err
			}

			_, present, err := a.orch.ToggleFavorite(args[0])
			if err != nil {
				return err
			}
			if present {
				fmt.Printf("Added %q to the tasting log\n", args[0])
			} else {
				fmt.Printf("Removed %q from the tasting log\n", args[0])
			}
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
}

func newTastingTastedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasted <drink-id>",
		Short: "Record a try of a drink, now",
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

			it, err := a.orch.MarkTasted(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Recorded a try of %q (%d so far)\n", args[0], len(it.Tries))
			return nil
		},
	}
}

func newTastingUntryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untry <drink-id> <time>",
		Short: "Delete one recorded try",
		Long:  "Delete the try recorded at the given RFC 3339 time, or the most recent one when the time is \"last\". Deleting the only try reverts the drink to want-to-try.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(cmd.Context()); err != nil {
				return err
			}

			var ts time.Time
			if args[1] == "last" {
				it, ok := a.orch.Favorite(args[0])
				if !ok || len(it.Tries) == 0 {
					return fmt.Errorf("no tries recorded for %q", args[0])
				}
				ts = it.Tries[len(it.Tries)-1]
			} else {
				var err error
				ts, err = time.Parse(time.RFC3339, args[1])
				if err != nil {
					return fmt.Errorf("invalid time %q (want RFC 3339 or \"last\"): %w", args[1], err)
				}
			}

			it, deleted, err := a.orch.DeleteTry(args[0], ts)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no try of %q at %s", args[0], args[1])
			}
			fmt.Printf("Deleted try of %q (%d remain)\n", args[0], len(it.Tries))
			return nil
		},
	}
}

func newTastingNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes <drink-id> [notes...]",
		Short: "Set or clear the notes on a log entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearNotes, _ := cmd.Flags().GetBool("clear")
			text := strings.Join(args[1:], " ")
			if clearNotes && text != "" {
				return fmt.Errorf("--clear cannot be combined with notes text")
			}
			if !clearNotes && text == "" {
				return fmt.Errorf("nothing to do: pass notes text or --clear")
			}

			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(cmd.Context()); err != nil {
				return err
			}

			_, applied, err := a.orch.SetNotes(args[0], tastinglog.NoteSetTo(text))
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("%q is not on the tasting log", args[0])
			}
			if clearNotes {
				fmt.Printf("Cleared notes on %q\n", args[0])
			} else {
				fmt.Printf("Set notes on %q\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().Bool("clear", false, "clear the notes instead of setting them")
	return cmd
}

func newTastingClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the festival's whole tasting log",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}

			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			// Straight to the store: the log never enters the session.
			if err := a.store.Delete(cmd.Context(), a.festival.ID); err != nil {
				return err
			}
			fmt.Printf("Cleared tasting log for %s\n", a.festival.ID)
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm deletion")
	return cmd
}
