package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/educode/internal/models"
)

func newContainerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Inspect and edit workspace containers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(cmd); err != nil {
				return err
			}
			return a.requireLogin()
		},
	}

	cmd.AddCommand(newContainerGetCmd(a))
	cmd.AddCommand(newContainerSetCmd(a))
	cmd.AddCommand(newContainerListCmd(a))
	cmd.AddCommand(newContainerCreateCmd(a))
	cmd.AddCommand(newContainerDeleteCmd(a))
	for _, action := range []string{"start", "stop", "restart"} {
		cmd.AddCommand(newContainerActionCmd(a, action))
	}
	return cmd
}

func printContainer(w io.Writer, c *models.Container) {
	fmt.Fprintf(w, "ID:          %s\n", c.ID)
	fmt.Fprintf(w, "Name:        %s\n", c.Name)
	fmt.Fprintf(w, "Status:      %s\n", c.Status)
	fmt.Fprintf(w, "Last run:    %s\n", c.LastRunAgo)
	fmt.Fprintf(w, "Created:     %s\n", c.CreatedAt.Format("2006-01-02 15:04"))
	if c.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", c.Description)
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(c.Tags, ", "))
	}
}

func newContainerGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			c, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printContainer(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newContainerSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Change one field of a container",
		Long: `Changes a single field (name, description, status or tags). The value is
parsed as JSON when possible, so tags can be given as '["a","b"]'.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			var value any
			if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
				value = args[2]
			}
			if err := client.Update(cmd.Context(), args[0], map[string]any{args[1]: value}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.%s\n", args[0], args[1])
			return nil
		},
	}
}

func newContainerListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			cs, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(cs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No containers found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLAST RUN")
			for _, c := range cs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Status, c.LastRunAgo)
			}
			return w.Flush()
		},
	}
}

func newContainerCreateCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a container",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			c, err := client.Create(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created container %s (%s)\n", c.ID, c.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "container name")
	return cmd
}

func newContainerDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted container %s\n", args[0])
			return nil
		},
	}
}

func newContainerActionCmd(a *app, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: strings.ToUpper(action[:1]) + action[1:] + " a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.workspaceClient()
			if err != nil {
				return err
			}
			c, err := client.Action(cmd.Context(), args[0], action)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Container %s is %s\n", c.ID, c.Status)
			return nil
		},
	}
}
