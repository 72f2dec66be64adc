package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/Makepad-fr/chores/internal/client"
	"github.com/Makepad-fr/chores/internal/config"
	"github.com/Makepad-fr/chores/internal/controller"
)

func newTestServer(t *testing.T, variant, token string) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	cfg := config.Server{
		App:   config.AppConfig{Variant: variant, AuthToken: token},
		Store: config.StoreConfig{Driver: "json", DSN: filepath.Join(t.TempDir(), "todos.json")},
	}
	var logs bytes.Buffer
	app, err := New(context.Background(), cfg, log.New(&logs, "", 0))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return srv, &logs
}

func postJSON(t *testing.T, srv *httptest.Server, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestIndexRendersEmptyPlaceholder(t *testing.T) {
	srv, _ := newTestServer(t, "basic", "")

	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n := doc.Find("#task-list li.empty").Length(); n != 1 {
		t.Fatalf("expected one placeholder, got %d", n)
	}
	if doc.Find("#add-form").AttrOr("action", "") != "/add" {
		t.Fatalf("unexpected form action")
	}
}

func TestAddToggleDeleteJSON(t *testing.T) {
	srv, logs := newTestServer(t, "basic", "")

	resp, body := postJSON(t, srv, "/add", `{"title":"  Wash dishes "}`, "")
	if resp.StatusCode != http.StatusOK || body["ok"] != true || body["title"] != "Wash dishes" {
		t.Fatalf("add: status=%d body=%v", resp.StatusCode, body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}
	id := int64(body["id"].(float64))

	resp, body = postJSON(t, srv, "/toggle/1", "", "")
	if resp.StatusCode != http.StatusOK || body["completed"] != float64(1) || int64(body["id"].(float64)) != id {
		t.Fatalf("toggle: status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, srv, "/delete/1", "", "")
	if resp.StatusCode != http.StatusOK || body["ok"] != true {
		t.Fatalf("delete: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = postJSON(t, srv, "/toggle/1", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
	if !strings.Contains(logs.String(), "POST /add -> 200") {
		t.Fatalf("expected access log line, got %q", logs.String())
	}
}

func TestAddBlankTitle(t *testing.T) {
	srv, _ := newTestServer(t, "basic", "")

	resp, body := postJSON(t, srv, "/add", `{"title":"   "}`, "")
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "Title is required" {
		t.Fatalf("expected 400, got %d %v", resp.StatusCode, body)
	}

	noRedirect := *srv.Client()
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	form, err := noRedirect.PostForm(srv.URL+"/add", url.Values{"title": {""}})
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	form.Body.Close()
	if form.StatusCode != http.StatusFound || form.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", form.StatusCode, form.Header.Get("Location"))
	}
}

func TestFormPostAddsAndRedirects(t *testing.T) {
	srv, _ := newTestServer(t, "basic", "")

	resp, err := srv.Client().PostForm(srv.URL+"/add", url.Values{"title": {"Water plants"}})
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("li.task .title").Text(); got != "Water plants" {
		t.Fatalf("expected redirected index to list the chore, got %q", got)
	}
}

func TestListReportsCompletedAsInt(t *testing.T) {
	srv, _ := newTestServer(t, "basic", "")
	postJSON(t, srv, "/add", `{"title":"a"}`, "")

	resp, err := srv.Client().Get(srv.URL + "/api/tasks")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if len(list) != 1 || list[0]["completed"] != float64(0) || list[0]["created_at"] == "" {
		t.Fatalf("unexpected list %s", raw)
	}
}

func TestMutatingRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, "basic", "s3cret")

	resp, _ := postJSON(t, srv, "/add", `{"title":"x"}`, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, srv, "/add", `{"title":"x"}`, "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, srv, "/add", `{"title":"x"}`, "s3cret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}

	get, err := srv.Client().Get(srv.URL + "/api/tasks")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("reads stay open, got %d", get.StatusCode)
	}
}

func TestControllerAgainstServer(t *testing.T) {
	srv, _ := newTestServer(t, "extended", "")
	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	ctrl := controller.New(c, controller.WithLogger(log.New(io.Discard, "", 0)))
	ctx := context.Background()

	if err := ctrl.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !ctrl.Snapshot().Empty() {
		t.Fatalf("expected empty collection")
	}

	task, err := ctrl.Submit(ctx, controller.Input{Title: "Vacuum", Date: "2024-03-05", Time: "09:30"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if task.Title != "Vacuum (3/5/2024 09:30)" {
		t.Fatalf("unexpected composed title %q", task.Title)
	}

	done, err := ctrl.Toggle(ctx, task.ID)
	if err != nil || !done {
		t.Fatalf("toggle: done=%v err=%v", done, err)
	}
	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := ctrl.Snapshot().Tasks; len(got) != 1 || !got[0].Completed {
		t.Fatalf("server state not reflected: %+v", got)
	}

	if err := ctrl.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ctrl.Snapshot().Empty() {
		t.Fatalf("expected placeholder state after delete")
	}
	if _, err := ctrl.Toggle(ctx, task.ID); err == nil {
		t.Fatalf("expected error toggling a deleted task")
	}
}
