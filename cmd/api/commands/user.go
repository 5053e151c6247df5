package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create, list and delete accounts",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.userService().Create(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User created successfully:\n")
			fmt.Fprintf(out, "  ID: %s\n", user.ID)
			fmt.Fprintf(out, "  Username: %s\n", user.Username)
			if !user.HasPassword() {
				fmt.Fprintf(out, "  (no password set; this account cannot log in)\n")
			}
			return nil
		},
	}
	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("password", "", "Password; leave empty for an account that cannot log in")
	_ = createUserCmd.MarkFlagRequired("username")

	listUserCmd := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			users, err := rt.userService().ListAll(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tCAN LOGIN\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", u.ID, u.Username, u.HasPassword(), u.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	deleteUserCmd := &cobra.Command{
		Use:   "delete <username|id>",
		Short: "Delete a user that owns no tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			users := rt.userService()
			id, err := uuid.Parse(args[0])
			if err != nil {
				user, err := users.FindByName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				id = user.ID
			}

			if err := users.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", args[0])
			return nil
		},
	}

	userCmd.AddCommand(createUserCmd, listUserCmd, deleteUserCmd)
	return userCmd
}
