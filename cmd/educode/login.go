package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/educode/internal/auth"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		phone    bool
		creds    auth.Credentials
		noRemote bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Educode",
		Long: `Logs in with a username and password, or with --phone using a mobile
number and captcha. The password is prompted for when not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds.Mode = auth.ModeAccount
			if phone {
				creds.Mode = auth.ModePhone
			}
			return runLogin(cmd, a, creds, noRemote)
		},
	}

	cmd.Flags().BoolVar(&phone, "phone", false, "log in with a mobile number and captcha")
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account username")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&creds.Mobile, "mobile", "", "mobile number for --phone")
	cmd.Flags().StringVar(&creds.Captcha, "captcha", "", "captcha for --phone (demo captcha: "+auth.DemoCaptcha+")")
	cmd.Flags().BoolVar(&noRemote, "offline", false, "only accept the built-in demo accounts")
	return cmd
}

func runLogin(cmd *cobra.Command, a *app, creds auth.Credentials, offline bool) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if creds.Mode == auth.ModeAccount {
		if creds.Username == "" {
			fmt.Fprint(out, "Username: ")
			line, err := readLine(in)
			if err != nil {
				return err
			}
			creds.Username = line
		}
		if creds.Password == "" {
			fmt.Fprint(out, "Password: ")
			pw, err := readPassword(cmd.InOrStdin(), in)
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			creds.Password = pw
		}
	}

	flags, err := a.flags()
	if err != nil {
		return err
	}
	opts := auth.FlowOpts{Flags: flags}
	if !offline {
		client, err := auth.NewClient(auth.ClientOpts{BaseURL: a.cfg.Backend.BaseURL, Timeout: a.cfg.Backend.Timeout})
		if err != nil {
			return err
		}
		opts.Verifier = client
	}
	flow, err := auth.NewFlow(opts)
	if err != nil {
		return err
	}

	res, err := flow.Login(cmd.Context(), creds)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	fmt.Fprintf(out, "%s. Continue at %s\n", res.Message, res.Redirect)
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the logged-in flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := a.flags()
			if err != nil {
				return err
			}
			if err := flags.SetLoggedIn(false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// readPassword reads without echo when stdin is a terminal, otherwise a
// plain line from in.
func readPassword(stdin io.Reader, in *bufio.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", errors.Wrap(err, "read password")
		}
		return string(pw), nil
	}
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSpace(line), nil
}
