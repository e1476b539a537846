package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zulandar/educode/internal/chat"
	"github.com/zulandar/educode/internal/db"
	"github.com/zulandar/educode/internal/llm"
	"github.com/zulandar/educode/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port int
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web app and mock backend",
		Long:  "Migrates the database, optionally loads demo data, and serves the pages, the backend API and the copilot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			return runServe(cmd, a, seed)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	cmd.Flags().BoolVar(&seed, "seed", true, "load demo users, containers and courses")
	return cmd
}

// newCopilot builds a copilot that streams from the configured LLM.
func newCopilot(a *app) (*chat.Copilot, error) {
	agent, err := llm.NewClient(llm.ClientOpts{
		BaseURL: a.cfg.LLM.BaseURL,
		Model:   a.cfg.LLM.Model,
		APIKey:  a.cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return chat.New(chat.Options{
		Agent:       agent,
		SettleDelay: a.cfg.Chat.SettleDelay,
		LabelMax:    a.cfg.Chat.LabelMax,
	})
}

func runServe(cmd *cobra.Command, a *app, seed bool) error {
	gormDB, err := a.connect()
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if seed {
		if err := db.Seed(gormDB, time.Now()); err != nil {
			return err
		}
	}

	copilot, err := newCopilot(a)
	if err != nil {
		return errors.Wrap(err, "copilot")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return server.Start(ctx, server.StartOpts{
		DB:      gormDB,
		Config:  a.cfg,
		Copilot: copilot,
		Out:     cmd.OutOrStdout(),
	})
}
