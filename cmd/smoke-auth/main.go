// smoke-auth drives a running gatepass instance end to end: register a
// throwaway user, log in with the same email, and check that a token and a
// matching profile come back.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("GATEPASS_SMOKE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 10 * time.Second}
	email := fmt.Sprintf("smoke-%d@gatepass.dev", rand.New(rand.NewSource(time.Now().UnixNano())).Int63())

	created := postJSON(client, base+"/api/register", map[string]any{
		"name":   "Smoke Tester",
		"gender": "female",
		"email":  email,
		"status": "active",
	}, http.StatusCreated)

	user, ok := created["user"].(map[string]any)
	if !ok || user["id"] == nil {
		log.Fatalf("register did not return an assigned id: %v", created)
	}

	login := postJSON(client, base+"/api/login", map[string]any{
		"email": email,
	}, http.StatusOK)

	token, _ := login["token"].(string)
	if token == "" {
		log.Fatalf("login returned no token: %v", login)
	}
	profile, ok := login["user"].(map[string]any)
	if !ok || profile["email"] != email {
		log.Fatalf("login profile mismatch: %v", login)
	}
	if profile["status"] != "active" {
		log.Fatalf("expected active profile, got %v", profile["status"])
	}

	fmt.Printf("✅ auth smoke test passed: user=%v email=%s\n", user["id"], email)
}

func postJSON(client *http.Client, url string, body map[string]any, wantStatus int) map[string]any {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal %s: %v", url, err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Fatalf("decode %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s: expected %d, got %d (%v)", url, wantStatus, resp.StatusCode, decoded)
	}
	return decoded
}
