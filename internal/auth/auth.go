// Package auth implements the login flow: local demo accounts, the
// backend user check, phone login, and the logged-in flag.
package auth

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Mode selects the login form.
type Mode string

const (
	ModeAccount Mode = "account"
	ModePhone   Mode = "phone"
)

// Demo credentials accepted without a backend round trip.
const (
	DemoUsername    = "admin"
	DemoPassword    = "123456"
	DemoAltPassword = "888888"
	DemoCaptcha     = "1234"
)

// TargetWorkspace is where a successful login leads.
const TargetWorkspace = "/workspace"

var (
	// ErrInvalidCredentials is returned when a username/password pair
	// is rejected.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrMissingField       = errors.New("auth: missing required field")
	ErrInvalidMobile      = errors.New("auth: invalid mobile number")
	ErrUnknownMode        = errors.New("auth: unknown login mode")
)

var mobilePattern = regexp.MustCompile(`^1\d{10}$`)

// Credentials is the submitted login form.
type Credentials struct {
	Mode     Mode   `json:"mode" form:"mode"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Mobile   string `json:"mobile" form:"mobile"`
	Captcha  string `json:"captcha" form:"captcha"`
}

// Result is the outcome of a successful login.
type Result struct {
	Redirect string `json:"redirect"`
	Message  string `json:"message"`
}

// Verifier checks a username/password pair with the backend.
type Verifier interface {
	Verify(ctx context.Context, username, password string) error
}

// FlowOpts holds parameters for creating a Flow.
type FlowOpts struct {
	Verifier Verifier // optional; without it only demo accounts log in
	Flags    FlagStore
}

// Flow runs logins and records the logged-in flag.
type Flow struct {
	verifier Verifier
	flags    FlagStore
}

// NewFlow creates a Flow.
func NewFlow(opts FlowOpts) (*Flow, error) {
	if opts.Flags == nil {
		return nil, errors.New("auth: flow: flag store is required")
	}
	return &Flow{verifier: opts.Verifier, flags: opts.Flags}, nil
}

// Login validates creds and sets the logged-in flag on success.
func (f *Flow) Login(ctx context.Context, creds Credentials) (Result, error) {
	var err error
	switch creds.Mode {
	case ModeAccount, "":
		err = f.account(ctx, creds)
	case ModePhone:
		err = phone(creds)
	default:
		err = errors.Wrapf(ErrUnknownMode, "%q", creds.Mode)
	}
	if err != nil {
		log.Info().Str("mode", string(creds.Mode)).Err(err).Msg("auth: login rejected")
		return Result{}, err
	}
	if err := f.flags.SetLoggedIn(true); err != nil {
		return Result{}, errors.Wrap(err, "auth: set logged-in flag")
	}
	log.Info().Str("mode", string(creds.Mode)).Str("user", creds.Username).Msg("auth: logged in")
	return Result{Redirect: TargetWorkspace, Message: "Login successful"}, nil
}

// Logout clears the logged-in flag.
func (f *Flow) Logout() error {
	return f.flags.SetLoggedIn(false)
}

// LoggedIn reports the logged-in flag.
func (f *Flow) LoggedIn() (bool, error) {
	return f.flags.LoggedIn()
}

func (f *Flow) account(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return errors.Wrap(ErrMissingField, "username and password are required")
	}
	if creds.Username == DemoUsername && (creds.Password == DemoPassword || creds.Password == DemoAltPassword) {
		return nil
	}
	if f.verifier == nil {
		return ErrInvalidCredentials
	}
	return f.verifier.Verify(ctx, creds.Username, creds.Password)
}

func phone(creds Credentials) error {
	if !mobilePattern.MatchString(creds.Mobile) {
		return ErrInvalidMobile
	}
	if strings.TrimSpace(creds.Captcha) == "" {
		return errors.Wrap(ErrMissingField, "captcha is required")
	}
	return nil
}
