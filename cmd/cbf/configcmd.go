package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigPathCmd(),
	)
	return cmd
}

// configPath resolves the config file location from flags.
func configPath(cmd *cobra.Command) (string, error) {
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		return v, nil
	}
	hd, err := resolveHome(cmd)
	if err != nil {
		return "", err
	}
	return hd.ConfigPath(), nil
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			store := config.NewStore(path)
			existing, err := store.Load(cmd.Context())
			if err != nil && !force {
				return err
			}
			if existing != nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
			}

			if err := store.Save(cmd.Context(), config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return newPrinter("json").json(cfg)
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
