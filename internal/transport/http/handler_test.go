package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zaidAlkhathlan/ramdan/internal/app"
	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/identity"
	"github.com/zaidAlkhathlan/ramdan/internal/infra/memory"
	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
)

// Day-of-month 5 over a 2-riddle pool selects index 1: question "B", answer "Y".
func testPool() []domain.Riddle {
	return []domain.Riddle{
		{Question: "A", Options: []string{"X", "Z"}, Answer: "X"},
		{Question: "B", Options: []string{"Y", "Z"}, Answer: "Y"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	noon := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	riddles := memory.NewRiddleSource(memory.NewStaticPoolLoader(testPool()), time.Minute)
	game := app.NewGameServiceWithClock(memory.NewUserStore(), memory.NewPlacementCounter(), riddles, riddle.Window{}, func() time.Time { return noon })
	ids := identity.NewService(memory.NewAccountStore(), identity.NewTokenIssuer([]byte("test-signing-key-0123456789abcdef"), "ramdan"))

	mux := http.NewServeMux()
	NewHandler(game, ids).Register(mux)
	mux.HandleFunc("/ws", NewWSHandler(game).ServeWS)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func register(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "secret1"})
	resp, err := http.Post(server.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session.Token
}

func doJSON(t *testing.T, method, url, token string, payload, out any) int {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestRegisterLoginAndFetchRiddle(t *testing.T) {
	server := newTestServer(t)
	token := register(t, server, "alice@example.com")

	var got struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		State    string   `json:"state"`
	}
	if code := doJSON(t, http.MethodGet, server.URL+"/api/riddle", token, nil, &got); code != http.StatusOK {
		t.Fatalf("riddle status %d", code)
	}
	if got.Question != "B" || got.State != "not_answered" {
		t.Fatalf("unexpected riddle payload: %+v", got)
	}
	for _, opt := range got.Options {
		if opt == "" {
			t.Fatalf("empty option in payload: %+v", got.Options)
		}
	}

	// Login with the same credentials works and yields a usable token.
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "secret1"})
	resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
}

func TestRiddleRequiresToken(t *testing.T) {
	server := newTestServer(t)

	if code := doJSON(t, http.MethodGet, server.URL+"/api/riddle", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := doJSON(t, http.MethodGet, server.URL+"/api/riddle", "not-a-token", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", code)
	}
}

func TestAnswerFlowAwardsAndGates(t *testing.T) {
	server := newTestServer(t)
	token := register(t, server, "alice@example.com")

	var result struct {
		Correct     bool `json:"correct"`
		Placement   int  `json:"placement"`
		Bonus       int  `json:"bonus"`
		TotalPoints int  `json:"totalPoints"`
		Rank        int  `json:"rank"`
	}
	code := doJSON(t, http.MethodPost, server.URL+"/api/answer", token, map[string]string{"choice": "Y"}, &result)
	if code != http.StatusOK {
		t.Fatalf("answer status %d", code)
	}
	if !result.Correct || result.Bonus != 15 || result.TotalPoints != 15 || result.Placement != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Rank != 1 {
		t.Fatalf("first correct responder should lead, rank=%d", result.Rank)
	}

	// The attempt is spent for today.
	code = doJSON(t, http.MethodPost, server.URL+"/api/answer", token, map[string]string{"choice": "Y"}, nil)
	if code != http.StatusConflict {
		t.Fatalf("expected 409 on second answer, got %d", code)
	}
}

func TestAnswerValidation(t *testing.T) {
	server := newTestServer(t)
	token := register(t, server, "alice@example.com")

	if code := doJSON(t, http.MethodPost, server.URL+"/api/answer", token, map[string]string{"choice": "  "}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty choice, got %d", code)
	}
}

func TestLoginUnknownEmailIs404(t *testing.T) {
	server := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": "ghost@example.com", "password": "secret1"})
	resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown email, got %d", resp.StatusCode)
	}
}

func TestDuplicateRegistrationIs409(t *testing.T) {
	server := newTestServer(t)
	register(t, server, "alice@example.com")

	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "secret1"})
	resp, err := http.Post(server.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLeaderboardListsTopScorers(t *testing.T) {
	server := newTestServer(t)
	aliceToken := register(t, server, "alice@example.com")
	bobToken := register(t, server, "bob@example.com")

	doJSON(t, http.MethodPost, server.URL+"/api/answer", aliceToken, map[string]string{"choice": "Y"}, nil)
	doJSON(t, http.MethodPost, server.URL+"/api/answer", bobToken, map[string]string{"choice": "Y"}, nil)

	var lb struct {
		Entries []struct {
			Rank   int    `json:"rank"`
			Email  string `json:"email"`
			Points int    `json:"points"`
		} `json:"entries"`
		YourRank int `json:"yourRank"`
	}
	if code := doJSON(t, http.MethodGet, server.URL+"/api/leaderboard", bobToken, nil, &lb); code != http.StatusOK {
		t.Fatalf("leaderboard status %d", code)
	}
	if len(lb.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lb.Entries))
	}
	if lb.Entries[0].Email != "alice@example.com" || lb.Entries[0].Points != 15 {
		t.Fatalf("expected alice leading with 15, got %+v", lb.Entries[0])
	}
	if lb.YourRank != 2 {
		t.Fatalf("expected bob at rank 2, got %d", lb.YourRank)
	}
}
