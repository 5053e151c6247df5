package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/todo/internal/application/seed"
)

// NewSeedCommand creates the sample data loader
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample users and tasks from a TOML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")

			fixtures, err := seed.LoadFile(path)
			if err != nil {
				return err
			}

			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := seed.NewSeeder(rt.userService(), rt.taskService(), rt.logger).Apply(cmd.Context(), fixtures)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users (%d already present), %d todos\n",
				res.UsersCreated, res.UsersSkipped, res.TodosCreated)
			return nil
		},
	}
	cmd.Flags().String("file", "configs/seed.toml", "Seed file")
	return cmd
}
