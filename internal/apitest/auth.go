package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/windfall/sprache/internal/errors"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenResponse struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{email: email, password: password, name: name, localID: uuid.NewString()}
}

// IssueToken mints a valid bearer token for email.
func (s *Server) IssueToken(email string) string {
	tok, err := s.signToken(email, s.tokenTTL)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return tok
}

// ExpiredToken mints a correctly signed token that is already expired.
func (s *Server) ExpiredToken(email string) string {
	tok, err := s.signToken(email, -time.Minute)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return tok
}

func (s *Server) signToken(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// validateToken parses and validates a token, returning the email it was issued for.
func (s *Server) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("invalid subject claim")
	}
	return email, nil
}

func (s *Server) tokenFor(u user) (tokenResponse, error) {
	tok, err := s.signToken(u.email, s.tokenTTL)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		IDToken:      tok,
		Email:        u.email,
		RefreshToken: "refresh-" + u.localID,
		ExpiresIn:    strconv.Itoa(int(s.tokenTTL.Seconds())),
		LocalID:      u.localID,
	}, nil
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, ValidationIssue{Loc: []string{"body"}, Msg: "Invalid JSON body", Type: "value_error.jsondecode"})
		return req, false
	}
	var issues []ValidationIssue
	if req.Email == "" {
		issues = append(issues, ValidationIssue{Loc: []string{"body", "email"}, Msg: "field required", Type: "value_error.missing"})
	}
	if req.Password == "" {
		issues = append(issues, ValidationIssue{Loc: []string{"body", "password"}, Msg: "field required", Type: "value_error.missing"})
	}
	if len(issues) > 0 {
		writeValidation(w, issues...)
		return req, false
	}
	return req, true
}

// login handles POST /auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	u, found := s.users[req.Email]
	s.mu.Unlock()
	if !found || u.password != req.Password {
		writeDetail(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
		return
	}

	resp, err := s.tokenFor(u)
	if err != nil {
		writeError(w, errors.InternalWrap("failed to sign token", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// register handles POST /auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if len(req.Password) < 6 {
		writeDetail(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "EMAIL_EXISTS")
		return
	}
	u := user{email: req.Email, password: req.Password, name: req.Name, localID: uuid.NewString()}
	s.users[req.Email] = u
	s.mu.Unlock()

	resp, err := s.tokenFor(u)
	if err != nil {
		writeError(w, errors.InternalWrap("failed to sign token", err))
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// firebaseLogin handles POST /auth/firebase-login
func (s *Server) firebaseLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		writeValidation(w, ValidationIssue{Loc: []string{"body", "idToken"}, Msg: "field required", Type: "value_error.missing"})
		return
	}

	email, err := s.validateToken(req.IDToken)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid identity token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"email":   email,
	})
}

// recoverPassword handles POST /auth/recover
func (s *Server) recoverPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeValidation(w, ValidationIssue{Loc: []string{"body", "email"}, Msg: "field required", Type: "value_error.missing"})
		return
	}

	s.mu.Lock()
	s.recoveries = append(s.recoveries, req.Email)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}
