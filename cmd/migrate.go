package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/campsite/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.StoreDriver == config.StoreMemory {
				return fmt.Errorf("nothing to migrate with STORE_DRIVER=memory")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		},
	}
}
