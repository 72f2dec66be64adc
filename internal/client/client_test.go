package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/page"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestAddPostsJSONTitle(t *testing.T) {
	var gotBody map[string]string
	var gotType, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"ok":true,"id":7,"title":"Wash dishes","completed":0}`)
	})

	task, err := c.Add(context.Background(), "/add", "Wash dishes")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if gotPath != "/add" || gotType != "application/json" || gotBody["title"] != "Wash dishes" {
		t.Fatalf("unexpected request path=%q type=%q body=%v", gotPath, gotType, gotBody)
	}
	want := model.Task{ID: "7", Title: "Wash dishes"}
	if task != want {
		t.Fatalf("expected %#v, got %#v", want, task)
	}
}

func TestNonSuccessStatusIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error":"Title is required"}`)
	})
	_, err := c.Add(context.Background(), "/add", "x")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
}

func TestToggleReadsCompleted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/toggle/7" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.ContentLength > 0 {
			t.Errorf("toggle must not send a body")
		}
		_, _ = io.WriteString(w, `{"ok":true,"id":7,"completed":1}`)
	})
	done, err := c.Toggle(context.Background(), "7")
	if err != nil || !done {
		t.Fatalf("expected completed=true, got %v %v", done, err)
	}
}

func TestToggleMalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	if _, err := c.Toggle(context.Background(), "1"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDeleteIgnoresBodyAndSendsToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `not json at all`)
	}, WithToken("Bearer s3cret"))
	if err := c.Delete(context.Background(), "9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if auth != "Bearer s3cret" {
		t.Fatalf("expected bearer token, got %q", auth)
	}
}

func TestPageParsesIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = page.Render(w, page.View{Action: "/add", Tasks: []model.Task{{ID: "1", Title: "Dust"}}})
	})
	doc, err := c.Page(context.Background())
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if doc.Action != "/add" || len(doc.Tasks) != 1 || doc.Tasks[0].Title != "Dust" {
		t.Fatalf("unexpected document %#v", doc)
	}
}

func TestResolve(t *testing.T) {
	c, err := New("http://example.test/app/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, _ := c.Resolve("/add")
	if got != "http://example.test/add" {
		t.Fatalf("unexpected %q", got)
	}
	got, _ = c.Resolve("add")
	if got != "http://example.test/app/add" {
		t.Fatalf("unexpected %q", got)
	}
	if _, err := New("not a url"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(TokenEnv, "")
	if ti, err := GetToken(); err != nil || ti != nil {
		t.Fatalf("expected no token, got %v %v", ti, err)
	}
	if err := SetToken("bearer abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	ti, err := GetToken()
	if err != nil || ti == nil || ti.Token != "abc" || ti.Source != "file" {
		t.Fatalf("unexpected token %#v %v", ti, err)
	}
	t.Setenv(TokenEnv, "xyz")
	if ti, _ := GetToken(); ti.Source != "env" || ti.Token != "xyz" {
		t.Fatalf("env should win, got %#v", ti)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestTimeoutKeepsInjectedClient(t *testing.T) {
	redirect := func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	injected := &http.Client{CheckRedirect: redirect}

	orders := map[string][]Option{
		"timeout first": {WithTimeout(2 * time.Second), WithHTTPClient(injected)},
		"timeout last":  {WithHTTPClient(injected), WithTimeout(2 * time.Second)},
	}
	for name, opts := range orders {
		c, err := New("http://example.test", opts...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if c.http.Timeout != 2*time.Second || c.http.CheckRedirect == nil {
			t.Fatalf("%s: expected timeout and redirect policy, got %#v", name, c.http)
		}
	}
	if injected.Timeout != 0 {
		t.Fatalf("injected client must not be mutated")
	}
}
