package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "opsdesk/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	decode := func(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
		t.Helper()
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return body
	}

	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection reset"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		body := decode(t, w)
		if body["error"] != "internal" {
			t.Fatalf("expected error code internal, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("validation failure includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "rejection_reason is required"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		body := decode(t, w)
		if body["error"] != "validation_failed" {
			t.Fatalf("expected error code validation_failed, got %q", body["error"])
		}
		if body["error_description"] != "rejection_reason is required" {
			t.Fatalf("expected description to surface, got %q", body["error_description"])
		}
	})

	t.Run("lifecycle codes map to statuses", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeNotFound:           http.StatusNotFound,
			dErrors.CodeUnauthorized:       http.StatusForbidden,
			dErrors.CodePrecondition:       http.StatusPreconditionFailed,
			dErrors.CodeInvalidTransition:  http.StatusConflict,
			dErrors.CodeConflict:           http.StatusConflict,
			dErrors.CodeAlreadyProvisioned: http.StatusConflict,
			dErrors.CodeProvisioningFailed: http.StatusBadGateway,
		}
		for code, want := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(code, "reason"))
			if w.Code != want {
				t.Fatalf("code %s: expected status %d, got %d", code, want, w.Code)
			}
		}
	})
}
