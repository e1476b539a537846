package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/educode/internal/db"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd(a))
	cmd.AddCommand(newDBSeedCmd(a))
	return cmd
}

func newDBMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := a.connect()
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}
}

func newDBSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, containers and courses",
		Long:  "Migrates all tables and inserts the demo data. Existing rows are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := a.connect()
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			if err := db.Seed(gormDB, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d containers, %d courses\n",
				len(db.DemoUsers()), len(db.DemoContainers(time.Now())), len(db.DemoCourses()))
			return nil
		},
	}
}
