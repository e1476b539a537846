package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/auth"
	"github.com/zulandar/educode/internal/config"
	"github.com/zulandar/educode/internal/db"
	"github.com/zulandar/educode/internal/logging"
	"github.com/zulandar/educode/internal/workspace"
)

// errNotLoggedIn is returned by guarded commands before a login.
var errNotLoggedIn = errors.New("not logged in: run `educode login` first")

// app carries the state shared by every command.
type app struct {
	configPath string
	flagFile   string
	cfg        *config.Config
}

// init loads the config and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if _, err := logging.Setup(cfg.Log, cmd.ErrOrStderr()); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// flags returns the store of the logged-in flag.
func (a *app) flags() (auth.FileFlags, error) {
	if a.flagFile != "" {
		return auth.FileFlags{Path: a.flagFile}, nil
	}
	path, err := auth.DefaultFlagPath()
	if err != nil {
		return auth.FileFlags{}, err
	}
	return auth.FileFlags{Path: path}, nil
}

// requireLogin fails unless the logged-in flag is set.
func (a *app) requireLogin() error {
	flags, err := a.flags()
	if err != nil {
		return err
	}
	on, err := flags.LoggedIn()
	if err != nil {
		return err
	}
	if !on {
		return errNotLoggedIn
	}
	return nil
}

// connect opens the configured database.
func (a *app) connect() (*gorm.DB, error) {
	gormDB, err := db.Connect(a.cfg.Database, logging.Debug())
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", a.cfg.Database.Driver)
	}
	return gormDB, nil
}

// workspaceClient returns a client for the configured backend.
func (a *app) workspaceClient() (*workspace.Client, error) {
	return workspace.NewClient(workspace.ClientOpts{
		BaseURL:  a.cfg.Backend.BaseURL,
		Timeout:  a.cfg.Backend.Timeout,
		CacheTTL: a.cfg.Backend.CacheTTL,
	})
}
