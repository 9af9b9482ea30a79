package mail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invrep/pkg/logx"
)

func TestResolveDisabledUsesStaticList(t *testing.T) {
	t.Parallel()

	r := &Resolver{Log: logx.Nop()}
	static := []string{"a@example.com", "b@example.com"}
	got := r.Resolve(context.Background(), static, false)
	if len(got) != 2 || got[0] != "a@example.com" {
		t.Fatalf("got %v", got)
	}
}

func TestResolveFetchesFromAPI(t *testing.T) {
	t.Parallel()

	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotToken = req.Header.Get("X-Internal-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"inventoryDashboardEmailRecipients":{
			"status":"SUCCESS",
			"data":[
				{"email":"  Sales@Example.com "},
				{"email":"ops@example.com"},
				{"email":"sales@example.com"},
				{"email":"not-an-email"}
			],
			"message":""}}}`))
	}))
	defer srv.Close()

	r := &Resolver{Endpoint: srv.URL, Token: "tok", Timeout: time.Second, Log: logx.Nop()}
	got := r.Resolve(context.Background(), []string{"fallback@example.com"}, true)

	if gotToken != "tok" {
		t.Errorf("token header = %q", gotToken)
	}
	want := []string{"sales@example.com", "ops@example.com"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recipient %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolveFallsBackOnHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := &Resolver{Endpoint: srv.URL, Timeout: time.Second, Log: logx.Nop()}
	got := r.Resolve(context.Background(), []string{"fallback@example.com"}, true)
	if len(got) != 1 || got[0] != "fallback@example.com" {
		t.Fatalf("got %v, want fallback", got)
	}
}

func TestResolveFallsBackOnNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"inventoryDashboardEmailRecipients":{
			"status":"ERROR","data":[],"message":"backend down"}}}`))
	}))
	defer srv.Close()

	r := &Resolver{Endpoint: srv.URL, Timeout: time.Second, Log: logx.Nop()}
	got := r.Resolve(context.Background(), []string{"fallback@example.com"}, true)
	if len(got) != 1 || got[0] != "fallback@example.com" {
		t.Fatalf("got %v, want fallback", got)
	}
}

func TestResolveFallsBackWithoutEndpoint(t *testing.T) {
	t.Parallel()

	r := &Resolver{Log: logx.Nop()}
	got := r.Resolve(context.Background(), []string{"fallback@example.com"}, true)
	if len(got) != 1 || got[0] != "fallback@example.com" {
		t.Fatalf("got %v, want fallback", got)
	}
}
