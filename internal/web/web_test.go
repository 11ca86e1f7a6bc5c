package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusWriter(t *testing.T) {
	w := httptest.NewRecorder()
	sw := &StatusWriter{ResponseWriter: w, Code: 200}

	sw.WriteHeader(http.StatusNotFound)
	if sw.Code != http.StatusNotFound {
		t.Errorf("expected Code 404, got %d", sw.Code)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("expected recorded code 404, got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	sw2 := &StatusWriter{ResponseWriter: w2, Code: 200}
	_, _ = sw2.Write([]byte("ok"))
	if sw2.Code != 200 {
		t.Errorf("expected default code 200, got %d", sw2.Code)
	}
}

func TestStatusWriterHijackUnsupported(t *testing.T) {
	sw := &StatusWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := sw.Hijack(); err == nil {
		t.Error("recorder is not a Hijacker, expected error")
	}
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"foo": "bar"})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type application/json, got %q", ct)
	}
	if want := `{"foo":"bar"}` + "\n"; w.Body.String() != want {
		t.Errorf("expected body %q, got %q", want, w.Body.String())
	}
}

func TestErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorCode(w, http.StatusUnprocessableEntity, "validation", "name too short", false, map[string]any{"field": "name"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "validation" || body["error"] != "name too short" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["retryable"]; ok {
		t.Error("retryable should be omitted when false")
	}
	details, _ := body["details"].(map[string]any)
	if details["field"] != "name" {
		t.Errorf("details = %v", body["details"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, fmt.Errorf("bad request"))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusBadRequest || body["error"] != "bad request" || body["code"] != "error" {
		t.Errorf("got %d %v", w.Code, body)
	}
}

func TestHTML(t *testing.T) {
	tmpl := template.Must(template.New("page").Parse(`<main>{{.}}</main>`))

	w := httptest.NewRecorder()
	HTML(w, http.StatusOK, tmpl, "page", "<mouse>")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "&lt;mouse&gt;") {
		t.Errorf("expected escaped output, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	HTML(w, http.StatusOK, tmpl, "missing", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown template, got %d", w.Code)
	}
}
