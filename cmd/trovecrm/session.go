package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robtrove/TroveCRM/client"
	"github.com/robtrove/TroveCRM/internal/appctx"
	"github.com/robtrove/TroveCRM/internal/domain"
)

var (
	loginServer   string
	loginPassword string
)

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// sessionClient loads the saved context and returns a client carrying its token.
func sessionClient() (*client.Client, appctx.Context, error) {
	cc, err := appctx.Load(contextPath)
	if err != nil {
		return nil, cc, err
	}
	if !cc.LoggedIn() {
		return nil, cc, fmt.Errorf("not logged in; run \"trovecrm login\" first")
	}
	return client.New(cc.Server, cc.Token), cc, nil
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Open a session and save it to the context file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := appctx.Load(contextPath)
		if err != nil {
			return err
		}
		if loginServer != "" {
			cc.Server = loginServer
		}
		password := loginPassword
		if password == "" {
			if password, err = readPassword("Password: "); err != nil {
				return err
			}
		}

		c := client.New(cc.Server, "")
		session, err := c.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		if err := cc.WithSession(session).Save(contextPath); err != nil {
			return err
		}
		colorGreen.Printf("logged in to %s as %s (%s)\n", cc.Server, session.User.Username, session.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cc, err := sessionClient()
		if err != nil {
			return err
		}
		if err := c.Logout(cmd.Context()); err != nil {
			warnf("server logout failed: %v", err)
		}
		return cc.Clear().Save(contextPath)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cc, err := sessionClient()
		if err != nil {
			return err
		}
		session, err := c.Session(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s) on %s\n", session.User.Username, session.User.Role, cc.Server)
		fmt.Printf("theme=%s currency=%s expires=%s\n",
			session.Preferences.Theme, session.Preferences.Currency, session.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var (
	prefTheme    string
	prefCurrency string
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Update the session theme and display currency",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cc, err := sessionClient()
		if err != nil {
			return err
		}
		prefs := cc.Preferences()
		if prefTheme != "" {
			prefs.Theme = prefTheme
		}
		if prefCurrency != "" {
			prefs.Currency = strings.ToUpper(prefCurrency)
		}
		if prefs, err = prefs.Normalize(); err != nil {
			return err
		}
		session, err := c.UpdatePreferences(cmd.Context(), prefs)
		if err != nil {
			return err
		}
		if err := cc.WithSession(session).Save(contextPath); err != nil {
			return err
		}
		colorGreen.Printf("theme=%s currency=%s\n", session.Preferences.Theme, session.Preferences.Currency)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "server URL (default "+appctx.DefaultServer+")")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when empty)")
	prefsCmd.Flags().StringVar(&prefTheme, "theme", "", domain.ThemeLight+" or "+domain.ThemeDark)
	prefsCmd.Flags().StringVar(&prefCurrency, "currency", "", "display currency code")
}
