package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1kuna/kindle-lock/pkg/auth"
)

// loginCommand runs the interactive login flow.
type loginCommand struct {
	configPath string
}

// Execute runs the login command.
func (c *loginCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	surface := auth.NewManualSurface(os.Stdin, os.Stderr)
	authenticator, err := auth.New(auth.Config{
		LoginURL:  a.cfg.Upstream.BaseURL,
		LoginWait: a.cfg.Refresh.LoginWait,
	}, surface, a.vault, a.log)
	if err != nil {
		return err
	}

	// Ctrl-C during the wait cancels the login cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	confirm := auth.TerminalConfirm(os.Stdin, os.Stderr)
	sess, err := auth.Login(ctx, authenticator, confirm, a.cfg.Refresh.LoginWait)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrLoginCancelled):
			fmt.Println("Login cancelled.")
			return nil
		case errors.Is(err, auth.ErrLoginTimeout):
			return fmt.Errorf("login timed out after %s", a.cfg.Refresh.LoginWait)
		default:
			return fmt.Errorf("login failed: %w", err)
		}
	}

	fmt.Println("Logged in.")
	if sess.DeviceToken == "" {
		fmt.Println("Note: no device token captured; it will be derived on the first refresh.")
	}
	return nil
}

// logoutCommand clears stored credentials and surface state.
type logoutCommand struct {
	configPath string
}

// Execute runs the logout command.
func (c *logoutCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	surface := auth.NewManualSurface(os.Stdin, os.Stderr)
	authenticator, err := auth.New(auth.Config{}, surface, a.vault, a.log)
	if err != nil {
		return err
	}

	if err := authenticator.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Println("Logged out.")
	return nil
}
