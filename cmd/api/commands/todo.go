package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
)

// NewTodoCommand creates the administrative task listing
func NewTodoCommand() *cobra.Command {
	todoCmd := &cobra.Command{
		Use:   "todo",
		Short: "Task inspection commands",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks of every user",
		Long:  "List tasks across all owners, filtered and sorted like GET /api/todos.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			sortBy, _ := cmd.Flags().GetString("sort-by")
			direction, _ := cmd.Flags().GetString("direction")

			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			tasks, err := rt.taskService().ListAll(cmd.Context(), filter, taskquery.ParseSort(sortBy, direction))
			if err != nil {
				return err
			}

			owners := map[string]string{}
			users, err := rt.userService().ListAll(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				owners[u.ID.String()] = u.Username
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tOWNER\tDONE\tDUE\tTITLE")
			for _, t := range tasks {
				due := "-"
				if t.DueDate != nil {
					due = t.DueDate.String()
				}
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n", t.ID, owners[t.UserID.String()], t.Completed, due, t.Title)
			}
			return w.Flush()
		},
	}

	flags := listCmd.Flags()
	flags.String("completed", "", "Only completed (true) or incomplete (false) tasks")
	flags.String("keyword", "", "Case-insensitive title substring")
	flags.String("due-from", "", "Earliest due date (YYYY-MM-DD)")
	flags.String("due-to", "", "Latest due date (YYYY-MM-DD)")
	flags.String("no-due-date", "", "Only undated (true) or only dated (false) tasks")
	flags.String("sort-by", "CREATED_AT", "TITLE, DUE_DATE, CREATED_AT, UPDATED_AT or COMPLETED")
	flags.String("direction", "DESC", "ASC or DESC")

	todoCmd.AddCommand(listCmd)
	return todoCmd
}

func filterFromFlags(cmd *cobra.Command) (taskquery.Filter, error) {
	var f taskquery.Filter
	flags := cmd.Flags()

	for name, dst := range map[string]**bool{"completed": &f.Completed, "no-due-date": &f.HasNoDueDate} {
		raw, _ := flags.GetString(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("--%s must be true or false, got %q", name, raw)
		}
		*dst = &v
	}

	for name, dst := range map[string]**entities.Date{"due-from": &f.DueDateFrom, "due-to": &f.DueDateTo} {
		raw, _ := flags.GetString(name)
		if raw == "" {
			continue
		}
		d, err := entities.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("--%s: %w", name, err)
		}
		*dst = &d
	}

	if kw, _ := flags.GetString("keyword"); kw != "" {
		f.Keyword = &kw
	}
	return f, nil
}
