package commands

import (
	"github.com/siherrmann/quoter/helper"
	loadSql "github.com/siherrmann/quoter/sql"
	"github.com/spf13/cobra"
)

var migrateForce bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "Reload the SQL functions even if they exist.")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [--force]",
	Short: "Creates or patches the authors and quotes tables.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return err
		}

		db, err := helper.NewDatabase("quoter", dbConfig, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		err = loadSql.EnsureSchema(db.Instance, migrateForce)
		if err != nil {
			return helper.NewError("ensure schema", err)
		}

		logger.Info("Schema is up to date")
		return nil
	},
}
