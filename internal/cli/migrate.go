package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print the schema version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, version, err := openDB(cmd.Context(), cfg.DBPath, logger)
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return fmt.Errorf("close database: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.DBPath, version)
			return err
		},
	}
}
