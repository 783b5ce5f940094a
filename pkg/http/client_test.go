package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendAndParseDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("adjusted") != "true" {
			t.Errorf("query param missing: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"OK","count":2}`))
	}))
	defer srv.Close()

	var out struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"adjusted": {"true"}},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Status != "OK" || out.Count != 2 {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	if StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

func TestTransportErrorHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         url + "/v1/x",
		QueryParams: map[string][]string{"apiKey": {"secret-key"}},
	}, nil)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("credential leaked in %q", err.Error())
	}
	if StatusCode(err) != 0 {
		t.Fatalf("transport errors carry no status")
	}
	if errors.Unwrap(err) == nil {
		t.Fatalf("expected wrapped cause")
	}
}
