package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListByEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("expected path /users, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("email"); got != "jo@example.com" {
			t.Errorf("unexpected email query: %q", got)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("expected Authorization header")
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept header")
		}

		json.NewEncoder(w).Encode([]User{
			{ID: 5, Name: "Jo", Email: "jo@example.com", Gender: "female", Status: "active"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	users, err := client.ListByEmail(context.Background(), "jo@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one record, got %d", len(users))
	}
	if users[0].ID != 5 || users[0].Status != "active" {
		t.Fatalf("unexpected record: %+v", users[0])
	}
}

func TestListByEmailEscapesQuery(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]User{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	if _, err := client.ListByEmail(context.Background(), "a+b@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rawQuery != "email=a%2Bb%40example.com" {
		t.Fatalf("query not escaped: %q", rawQuery)
	}
}

func TestListByEmailUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid token"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-token")
	_, err := client.ListByEmail(context.Background(), "jo@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if se.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", se.Status)
	}
	if string(se.Detail) != `{"message":"Invalid token"}` {
		t.Fatalf("detail not preserved: %s", se.Detail)
	}
}

func TestCreate(t *testing.T) {
	var received NewUser
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type header")
		}
		json.NewDecoder(r.Body).Decode(&received)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(User{
			ID:     7421,
			Name:   received.Name,
			Email:  received.Email,
			Gender: received.Gender,
			Status: received.Status,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	created, err := client.Create(context.Background(), NewUser{
		Name: "Jo", Gender: "female", Email: "jo@example.com", Status: "active",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 7421 {
		t.Fatalf("expected assigned id, got %d", created.ID)
	}
	if received.Name != "Jo" || received.Status != "active" {
		t.Fatalf("payload not forwarded verbatim: %+v", received)
	}
}

func TestCreateUpstreamValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`[{"field":"email","message":"has already been taken"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	_, err := client.Create(context.Background(), NewUser{
		Name: "Jo", Gender: "female", Email: "jo@example.com", Status: "active",
	})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", se.Status)
	}
	var detail []map[string]any
	if err := json.Unmarshal(se.Detail, &detail); err != nil {
		t.Fatalf("detail not valid JSON: %v", err)
	}
	if detail[0]["field"] != "email" {
		t.Fatalf("unexpected detail: %s", se.Detail)
	}
}

func TestConfigured(t *testing.T) {
	if NewClient("http://example.com", "").Configured() {
		t.Fatal("empty token must not count as configured")
	}
	if !NewClient("http://example.com", "tok").Configured() {
		t.Fatal("expected configured client")
	}
}
