package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/apitest"
	"github.com/windfall/sprache/internal/errors"
	"github.com/windfall/sprache/internal/session"
)

type cli struct {
	t         *testing.T
	backend   *apitest.Server
	tokenFile string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	backend := apitest.New()
	t.Cleanup(backend.Close)

	tokenFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("API_URL", backend.URL)
	t.Setenv("TOKEN_STORE", "file")
	t.Setenv("TOKEN_FILE", tokenFile)
	t.Setenv("LOG_LEVEL", "error")
	return &cli{t: t, backend: backend, tokenFile: tokenFile}
}

// exec runs one command line and returns exit code, stdout and stderr.
func (c *cli) exec(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) store() *session.FileStore {
	return session.NewFileStore(c.tokenFile, "token")
}

func (c *cli) token() string {
	c.t.Helper()
	tok, err := c.store().Token(context.Background())
	if err != nil {
		c.t.Fatalf("read token: %v", err)
	}
	return tok
}

func (c *cli) signIn(email string) {
	c.t.Helper()
	if err := c.store().SetToken(context.Background(), c.backend.IssueToken(email)); err != nil {
		c.t.Fatalf("seed token: %v", err)
	}
}

func TestLoginStoresTokenForLaterCalls(t *testing.T) {
	c := newCLI(t)
	c.backend.AddUser("anna@example.com", "geheim123", "Anna")

	code, out, errOut := c.exec("", "login", "--email", "anna@example.com", "--password", "geheim123", "-o", "json")
	if code != 0 {
		t.Fatalf("login exit %d: %s", code, errOut)
	}
	var res signedInResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("login output %q: %v", out, err)
	}
	if res.Email != "anna@example.com" {
		t.Errorf("email = %q", res.Email)
	}
	if c.token() == "" {
		t.Fatal("token not stored after login")
	}

	code, out, errOut = c.exec("", "speaking", "themes", "--level", "b2", "-o", "json")
	if code != 0 {
		t.Fatalf("themes exit %d: %s", code, errOut)
	}
	var themes []string
	if err := json.Unmarshal([]byte(out), &themes); err != nil {
		t.Fatalf("themes output %q: %v", out, err)
	}
	if len(themes) == 0 {
		t.Error("no themes returned")
	}

	req, ok := c.backend.LastRequest("/speaking/questions/themes")
	if !ok {
		t.Fatal("themes request not recorded")
	}
	if req.Query.Get("level") != "B2" {
		t.Errorf("level = %q, want B2", req.Query.Get("level"))
	}
	if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
		t.Errorf("Authorization = %q", req.Header.Get("Authorization"))
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	c := newCLI(t)
	c.backend.AddUser("ben@example.com", "passwort1", "Ben")

	code, _, errOut := c.exec("passwort1\n", "login", "--email", "ben@example.com")
	if code != 0 {
		t.Fatalf("login exit %d: %s", code, errOut)
	}
	if c.token() == "" {
		t.Error("token not stored")
	}
}

func TestLoginFailureLeavesStoreEmpty(t *testing.T) {
	c := newCLI(t)
	c.backend.AddUser("anna@example.com", "geheim123", "Anna")

	code, _, errOut := c.exec("", "login", "--email", "anna@example.com", "--password", "falsch")
	if code == 0 {
		t.Fatal("login with a wrong password succeeded")
	}
	if !strings.Contains(errOut, "INVALID_LOGIN_CREDENTIALS") {
		t.Errorf("stderr = %q", errOut)
	}
	if c.token() != "" {
		t.Error("token stored after failed login")
	}
}

func TestExpiredSessionIsCleared(t *testing.T) {
	c := newCLI(t)
	if err := c.store().SetToken(context.Background(), c.backend.ExpiredToken("anna@example.com")); err != nil {
		t.Fatal(err)
	}

	code, _, errOut := c.exec("", "speaking", "history")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(errOut, errors.SessionExpiredMessage) || !strings.Contains(errOut, "sprache login") {
		t.Errorf("stderr = %q", errOut)
	}
	if c.token() != "" {
		t.Error("expired token was not cleared")
	}
}

func TestSignedOutCallIsSessionExpired(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.exec("", "speaking", "practice-session")
	if code != 1 || !strings.Contains(errOut, errors.SessionExpiredMessage) {
		t.Errorf("exit = %d stderr = %q", code, errOut)
	}
}

func TestPracticeSessionYAML(t *testing.T) {
	c := newCLI(t)
	c.signIn("anna@example.com")

	code, out, errOut := c.exec("", "speaking", "practice-session", "--theme", "Business", "--level", "B2")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"question:", "theme: Business", "level: B2", "targetWords:", "maxDuration: 60"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "{") {
		t.Errorf("yaml output uses flow style:\n%s", out)
	}
}

func TestInvalidLevelIsRejectedLocally(t *testing.T) {
	c := newCLI(t)
	c.signIn("anna@example.com")

	code, _, errOut := c.exec("", "speaking", "random", "--level", "D1")
	if code != 1 || !strings.Contains(errOut, "invalid CEFR level") {
		t.Errorf("exit = %d stderr = %q", code, errOut)
	}
	if _, ok := c.backend.LastRequest("/speaking/questions/random"); ok {
		t.Error("request sent for an invalid level")
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.exec("", "status", "-o", "xml")
	if code != 1 || !strings.Contains(errOut, "unknown output format") {
		t.Errorf("exit = %d stderr = %q", code, errOut)
	}
}

func TestAnalyzeThenHistory(t *testing.T) {
	c := newCLI(t)
	c.signIn("anna@example.com")

	audio := filepath.Join(t.TempDir(), "answer.mp3")
	if err := os.WriteFile(audio, bytes.Repeat([]byte{0x1}, 4096), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := c.exec("", "speaking", "analyze", audio,
		"--question", "Wie gehen Sie mit Konflikten am Arbeitsplatz um?",
		"--words", "der Konflikt,verhandeln", "-o", "json")
	if code != 0 {
		t.Fatalf("analyze exit %d: %s", code, errOut)
	}
	var res apiclient.Analysis
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("analyze output %q: %v", out, err)
	}
	if res.ID == "" || res.OverallScore < 0 || res.OverallScore > 100 {
		t.Errorf("analysis = %+v", res)
	}

	code, out, errOut = c.exec("", "speaking", "history", "-o", "json")
	if code != 0 {
		t.Fatalf("history exit %d: %s", code, errOut)
	}
	var h apiclient.History
	if err := json.Unmarshal([]byte(out), &h); err != nil {
		t.Fatal(err)
	}
	if h.Total != 1 || h.Sessions[0].ID != res.ID {
		t.Errorf("history = %+v", h)
	}

	req, _ := c.backend.LastRequest("/speaking/history")
	if req.Query.Get("limit") != "20" || req.Query.Has("skip") {
		t.Errorf("history query = %v", req.Query)
	}

	code, out, errOut = c.exec("", "speaking", "session", res.ID, "-o", "json")
	if code != 0 || !strings.Contains(out, res.ID) {
		t.Errorf("session exit %d: %s %s", code, out, errOut)
	}
}

func TestHistoryLimitHelpNamesDefault(t *testing.T) {
	c := newCLI(t)
	code, out, errOut := c.exec("", "speaking", "history", "--help")
	if code != 0 {
		t.Fatalf("help exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "page size (20 when 0)") {
		t.Errorf("--limit help missing default:\n%s", out)
	}
	if strings.Contains(out, "server default") {
		t.Errorf("--limit help still defers to the server:\n%s", out)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	c := newCLI(t)
	c.signIn("anna@example.com")

	code, _, errOut := c.exec("", "speaking", "analyze", filepath.Join(t.TempDir(), "missing.webm"))
	if code != 1 || !strings.Contains(errOut, "failed to read recording") {
		t.Errorf("exit = %d stderr = %q", code, errOut)
	}
}

func TestPodcastCommands(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.exec("", "podcasts", "create", "--words", "der Bahnhof,die Fahrkarte", "--level", "a2", "--context", "travel", "-o", "json")
	if code != 0 {
		t.Fatalf("create exit %d: %s", code, errOut)
	}
	var p apiclient.Podcast
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("create output %q: %v", out, err)
	}
	if p.ID == "" || p.CEFRLevel != "A2" || p.Context != "travel" {
		t.Errorf("podcast = %+v", p)
	}

	code, out, _ = c.exec("", "podcasts", "list", "--context", "travel", "-o", "json")
	if code != 0 || !strings.Contains(out, p.ID) {
		t.Errorf("list exit %d: %s", code, out)
	}

	code, out, _ = c.exec("", "podcasts", "get", p.ID)
	if code != 0 || !strings.Contains(out, "der Bahnhof") {
		t.Errorf("get exit %d: %s", code, out)
	}

	code, out, _ = c.exec("", "podcasts", "delete", p.ID)
	if code != 0 || !strings.Contains(out, "Podcast deleted successfully") {
		t.Errorf("delete exit %d: %s", code, out)
	}

	code, _, errOut = c.exec("", "podcasts", "get", p.ID)
	if code != 1 || !strings.Contains(errOut, "Podcast not found") {
		t.Errorf("get after delete exit %d: %s", code, errOut)
	}

	code, _, errOut = c.exec("", "podcasts", "create", "--words", "x", "--level", "B1", "--context", "moon")
	if code != 1 || !strings.Contains(errOut, "Invalid context") {
		t.Errorf("bad context exit %d: %s", code, errOut)
	}

	code, out, _ = c.exec("", "podcasts", "contexts")
	if code != 0 || !strings.Contains(out, "- daily_life") {
		t.Errorf("contexts exit %d: %s", code, out)
	}
}

func TestWordCommands(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.exec("", "words", "decks", "-o", "json")
	if code != 0 {
		t.Fatalf("decks exit %d: %s", code, errOut)
	}
	var decks []apiclient.Deck
	if err := json.Unmarshal([]byte(out), &decks); err != nil || len(decks) == 0 {
		t.Fatalf("decks = %q (%v)", out, err)
	}

	code, out, _ = c.exec("", "words", "level", "b2")
	if code != 0 || !strings.Contains(out, "verhandeln") {
		t.Errorf("level exit %d: %s", code, out)
	}

	code, _, errOut = c.exec("", "words", "level", "Z9")
	if code != 1 || !strings.Contains(errOut, "Level not found") {
		t.Errorf("unknown level exit %d: %s", code, errOut)
	}
}

func TestStatusAndLogout(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.exec("", "status", "-o", "json")
	if code != 0 || !strings.Contains(out, `"signedIn": false`) {
		t.Errorf("status signed out: %d %s", code, out)
	}

	c.signIn("anna@example.com")
	code, out, _ = c.exec("", "status", "-o", "json")
	var st sessionStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("status output %q: %v", out, err)
	}
	if code != 0 || !st.SignedIn || st.ExpiresAt == nil || st.Expired {
		t.Errorf("status = %+v", st)
	}

	code, out, _ = c.exec("", "logout")
	if code != 0 || !strings.Contains(out, "Signed out.") {
		t.Errorf("logout: %d %s", code, out)
	}
	if c.token() != "" {
		t.Error("token still stored after logout")
	}
}

func TestRecoverAndSocialLogin(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.exec("", "recover", "--email", "anna@example.com")
	if code != 0 || !strings.Contains(out, "Password reset email sent") {
		t.Errorf("recover: %d %s", code, out)
	}
	if got := c.backend.Recoveries(); len(got) != 1 || got[0] != "anna@example.com" {
		t.Errorf("recoveries = %v", got)
	}

	idToken := c.backend.IssueToken("anna@example.com")
	code, out, errOut := c.exec("", "social-login", "--id-token", idToken, "-o", "json")
	if code != 0 || !strings.Contains(out, "Login successful") {
		t.Fatalf("social-login: %d %s %s", code, out, errOut)
	}
	if c.token() != idToken {
		t.Error("identity token not stored")
	}

	code, _, errOut = c.exec("", "social-login", "--id-token", "not-a-jwt")
	if code != 1 || !strings.Contains(errOut, "Invalid identity token") {
		t.Errorf("bad social-login: %d %s", code, errOut)
	}
}

func TestToYAMLKeepsFieldOrder(t *testing.T) {
	out, err := toYAML(apiclient.Metrics{Fluency: 80, Grammar: 70, Vocabulary: 60, Pronunciation: 50})
	if err != nil {
		t.Fatal(err)
	}
	want := "fluency: 80\ngrammar: 70\nvocabulary: 60\npronunciation: 50\n"
	if string(out) != want {
		t.Errorf("toYAML = %q, want %q", out, want)
	}

	out, err = toYAML(json.RawMessage(`{"message":"ok","email":"a@b.c"}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "message: ok\nemail: a@b.c\n" {
		t.Errorf("toYAML raw = %q", out)
	}
}
