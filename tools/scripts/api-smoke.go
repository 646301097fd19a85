// Package main provides a CI-friendly HTTP smoke test for the folio API.
//
// It validates:
//   - /healthz liveness
//   - login -> access + refresh token pair
//   - bearer access to a protected route
//   - refresh -> fresh access token that is also accepted
//   - public project listing without credentials
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const maxReadBytes = 1 << 20 // 1MiB

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:5000", "API base URL")
		email    = flag.String("email", "", "Email of an existing user")
		password = flag.String("password", "", "Password of the user")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if *email == "" || *password == "" {
		fatalf("-email and -password are required")
	}

	root := context.Background()
	client := &http.Client{}

	mustHealthy(root, client, *baseURL, *timeout)
	if *verbose {
		fmt.Println("healthz: ok")
	}

	pair := mustLogin(root, client, *baseURL, *email, *password, *timeout)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		fatalf("login: empty token pair")
	}
	if *verbose {
		fmt.Println("login: ok")
	}

	mustAuthorized(root, client, *baseURL, pair.AccessToken, *timeout)
	if *verbose {
		fmt.Println("protected route with login token: ok")
	}

	fresh := mustRefresh(root, client, *baseURL, pair.RefreshToken, *timeout)
	if fresh == "" {
		fatalf("refresh: empty access token")
	}
	mustAuthorized(root, client, *baseURL, fresh, *timeout)
	if *verbose {
		fmt.Println("protected route with refreshed token: ok")
	}

	mustPublicProjects(root, client, *baseURL, *timeout)

	fmt.Printf("OK: base=%s user=%s\n", *baseURL, *email)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func mustHealthy(parent context.Context, c *http.Client, base string, timeout time.Duration) {
	status, _ := mustDo(parent, c, http.MethodGet, base+"/healthz", "", nil, timeout)
	if status != http.StatusOK {
		fatalf("healthz: status %d", status)
	}
}

func mustLogin(parent context.Context, c *http.Client, base, email, password string, timeout time.Duration) tokenPair {
	body := map[string]string{"email": email, "password": password}
	status, raw := mustDo(parent, c, http.MethodPost, base+"/api/auth/login", "", body, timeout)
	if status != http.StatusOK {
		fatalf("login: status %d body=%s", status, raw)
	}

	var pair tokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		fatalf("login: decode: %v", err)
	}
	return pair
}

func mustRefresh(parent context.Context, c *http.Client, base, refreshToken string, timeout time.Duration) string {
	body := map[string]string{"refresh_token": refreshToken}
	status, raw := mustDo(parent, c, http.MethodPost, base+"/api/auth/refresh", "", body, timeout)
	if status != http.StatusOK {
		fatalf("refresh: status %d body=%s", status, raw)
	}

	var pair tokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		fatalf("refresh: decode: %v", err)
	}
	return pair.AccessToken
}

func mustAuthorized(parent context.Context, c *http.Client, base, accessToken string, timeout time.Duration) {
	status, raw := mustDo(parent, c, http.MethodGet, base+"/api/users", accessToken, nil, timeout)
	if status != http.StatusOK {
		fatalf("users: status %d body=%s", status, raw)
	}
}

func mustPublicProjects(parent context.Context, c *http.Client, base string, timeout time.Duration) {
	status, raw := mustDo(parent, c, http.MethodGet, base+"/api/projects", "", nil, timeout)
	if status != http.StatusOK {
		fatalf("projects: status %d body=%s", status, raw)
	}
	var projects []json.RawMessage
	if err := json.Unmarshal(raw, &projects); err != nil {
		fatalf("projects: decode: %v", err)
	}
}

func mustDo(parent context.Context, c *http.Client, method, rawURL, bearer string, body any, timeout time.Duration) (int, []byte) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fatalf("%s %s: encode: %v", method, rawURL, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		fatalf("%s %s: build request: %v", method, rawURL, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, rawURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		fatalf("%s %s: read body: %v", method, rawURL, err)
	}
	return resp.StatusCode, raw
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
