package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCourseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "List and add course cards",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(cmd); err != nil {
				return err
			}
			return a.requireLogin()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List course cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			cs, err := client.Courses(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tRATING\tPROGRESS\tTAGS")
			for _, c := range cs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d%%\t%s\n", c.ID, c.Title, c.Level, c.Rating, c.Progress, strings.Join(c.Tags, ","))
			}
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Add a placeholder course card",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			c, err := client.AddCourse(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added course %d: %s\n", c.ID, c.Title)
			return nil
		},
	})
	return cmd
}
