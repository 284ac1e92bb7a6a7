package main

import (
	"github.com/spf13/cobra"
)

func newFestivalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "festivals",
		Short: "List configured festivals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				return p.json(cfg.Festivals)
			}
			rows := make([][]string, 0, len(cfg.Festivals))
			for _, f := range cfg.Festivals {
				def := ""
				if f.ID == cfg.DefaultFestival {
					def = "*"
				}
				rows = append(rows, []string{f.ID, f.Name, def})
			}
			p.table([]string{"ID", "NAME", "DEFAULT"}, rows)
			return nil
		},
	}
}
