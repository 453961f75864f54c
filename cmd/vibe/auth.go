package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/vibe/internal/auth"
)

type credentialOptions struct {
	Email    string
	Password string
}

func (o *credentialOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&o.Password, "password", "p", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
}

func (o *credentialOptions) password() (string, error) {
	if o.Password != "" {
		return o.Password, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func addAuth(topLevel *cobra.Command) {
	topLevel.AddCommand(newSignupCommand(), newLoginCommand(), newLogoutCommand(), newWhoamiCommand(), newCallbackCommand())
}

func newSignupCommand() *cobra.Command {
	o := &credentialOptions{}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			password, err := o.password()
			if err != nil {
				return err
			}
			s, err := a.provider.SignUp(ctx, o.Email, password)
			if err != nil {
				return err
			}
			printSignedIn(s)
			return nil
		}),
	}
	o.addFlags(cmd)
	return cmd
}

func newLoginCommand() *cobra.Command {
	o := &credentialOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			password, err := o.password()
			if err != nil {
				return err
			}
			s, err := a.provider.SignInWithPassword(ctx, o.Email, password)
			if err != nil {
				return err
			}
			printSignedIn(s)
			return nil
		}),
	}
	o.addFlags(cmd)

	code := &cobra.Command{
		Use:   "code <email>",
		Short: "Issue a one-time sign-in link.",
		Example: `
vibe login code ada@example.com
vibe auth callback "http://localhost:3000/auth/callback?code=..."
`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			c, err := a.provider.RequestCode(ctx, args[0])
			if err != nil {
				return err
			}
			link := strings.TrimRight(a.cfg.Origin, "/") + "/auth/callback?" + url.Values{"code": {c}}.Encode()
			fmt.Println(link)
			return nil
		}),
	}
	cmd.AddCommand(code)
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Aliases: []string{"signout"},
		Short:   "Sign out and forget the saved session.",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			if err := a.provider.SignOut(ctx); err != nil {
				return err
			}
			fmt.Println("signed out")
			return nil
		}),
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			s, err := a.provider.CurrentSession(ctx)
			if err != nil {
				return err
			}
			if s == nil {
				return errors.New("not signed in")
			}
			printSignedIn(s)
			return nil
		}),
	}
}

func newCallbackCommand() *cobra.Command {
	callback := &cobra.Command{
		Use:   "callback <url>",
		Short: "Complete a sign-in link and print where it lands.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse link: %w", err)
			}
			target := auth.ResolveCallback(ctx, u.Query(), a.provider, auth.CallbackOptions{
				Origin:        a.cfg.Origin,
				ForwardedHost: os.Getenv("X_FORWARDED_HOST"),
				Development:   a.cfg.Development,
				Logger:        a.logger,
			})
			if auth.IsErrorRedirect(target) {
				cbErr, perr := auth.ParseCallbackError(target)
				if perr != nil {
					return perr
				}
				_, _ = color.New(color.FgRed, color.Bold).Printf("sign-in failed: %s\n", cbErr.Code)
				if cbErr.Message != "" {
					_, _ = color.New(color.Faint).Println(cbErr.Message)
				}
				fmt.Println(target)
				return errors.New("sign-in link was not accepted")
			}
			fmt.Println(target)
			return nil
		}),
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign-in link handling.",
	}
	cmd.AddCommand(callback)
	return cmd
}

func printSignedIn(s *auth.Session) {
	_, _ = color.New(color.FgGreen).Print("signed in as ")
	_, _ = color.New(color.Bold).Println(s.User.Email)
	_, _ = color.New(color.Faint).Printf("session valid until %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
}
