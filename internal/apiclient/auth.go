package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/windfall/sprache/internal/errors"
)

// DefaultRecoverMessage is shown when the backend acknowledges recovery without a message.
const DefaultRecoverMessage = "If an account exists for this email, you will receive a password reset link."

// AuthService covers the /auth endpoints. It never writes the token store;
// callers persist the returned token.
type AuthService struct {
	c *Client
}

// Login exchanges email and password for a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	if email == "" || password == "" {
		return nil, errors.Validation("email and password are required")
	}

	var out AuthToken
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   Credentials{Email: email, Password: password},
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its session token.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*AuthToken, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, errors.Validation("email and password are required")
	}

	var out AuthToken
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   reg,
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FirebaseLogin exchanges an external identity-provider token for a backend
// session. The response body is returned undecoded.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (json.RawMessage, error) {
	if idToken == "" {
		return nil, errors.Validation("idToken is required")
	}

	var out json.RawMessage
	err := s.c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/firebase-login",
		body:     map[string]string{"idToken": idToken},
		public:   true,
		fallback: "Social login failed. Please try again.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Recover triggers a password-reset message for email.
func (s *AuthService) Recover(ctx context.Context, email string) (*RecoverResult, error) {
	if email == "" {
		return nil, errors.Validation("email is required")
	}

	var out RecoverResult
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/recover",
		body:   map[string]string{"email": email},
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Message == "" {
		out.Message = DefaultRecoverMessage
	}
	return &out, nil
}
