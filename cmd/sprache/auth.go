package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}

			tok, err := a.client.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.store.SetToken(cmd.Context(), tok.IDToken); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			a.log.Info().Str("email", tok.Email).Msg("Signed in")
			return a.print(cmd.OutOrStdout(), signedIn(tok))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg apiclient.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Password == "" {
				p, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				reg.Password = p
			}

			tok, err := a.client.Auth.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			if err := a.store.SetToken(cmd.Context(), tok.IDToken); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			a.log.Info().Str("email", tok.Email).Msg("Registered")
			return a.print(cmd.OutOrStdout(), signedIn(tok))
		},
	}
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password (read from stdin when omitted)")
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	return cmd
}

func newSocialLoginCmd(a *app) *cobra.Command {
	var idToken string
	cmd := &cobra.Command{
		Use:   "social-login",
		Short: "Sign in with an identity-provider token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := a.client.Auth.FirebaseLogin(cmd.Context(), idToken)
			if err != nil {
				return err
			}
			if err := a.store.SetToken(cmd.Context(), idToken); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			return a.print(cmd.OutOrStdout(), body)
		},
	}
	cmd.Flags().StringVar(&idToken, "id-token", "", "identity token issued by the provider")
	return cmd
}

func newRecoverCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Auth.Recover(cmd.Context(), email)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

type sessionStatus struct {
	SignedIn  bool       `json:"signedIn"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := a.store.Token(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}

			st := sessionStatus{SignedIn: tok != ""}
			if exp, ok := session.Expiry(tok); ok {
				exp = exp.UTC()
				st.ExpiresAt = &exp
				st.Expired = !time.Now().Before(exp)
			}
			return a.print(cmd.OutOrStdout(), st)
		},
	}
}

type signedInResult struct {
	Email     string     `json:"email"`
	UserID    string     `json:"userId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func signedIn(tok *apiclient.AuthToken) signedInResult {
	res := signedInResult{Email: tok.Email, UserID: tok.LocalID}
	if exp := tok.OAuth2(time.Now()).Expiry; !exp.IsZero() {
		exp = exp.UTC()
		res.ExpiresAt = &exp
	}
	return res
}

// readSecret reads one line from r.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
