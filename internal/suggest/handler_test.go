package suggest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"refzone/assignment-service/internal/suggest"
)

func newTestMux(fs *fakeStore) *http.ServeMux {
	mux := http.NewServeMux()
	suggest.NewHandler(newTestService(fs)).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body, actor string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if actor != "" {
		req.Header.Set("x-user-id", actor)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}

func TestGenerateEndpoint(t *testing.T) {
	fs := newFakeStore()
	seedBatch(fs, 1, 2)
	mux := newTestMux(fs)

	rr := doJSON(t, mux, http.MethodPost, "/suggestions", `{"game_ids":["g1"]}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["generated_count"].(float64) != 2 {
		t.Errorf("generated_count = %v, want 2", body["generated_count"])
	}
	if body["request_id"] == "" {
		t.Error("missing request_id")
	}
}

func TestGenerateEndpointPartialFactors(t *testing.T) {
	fs := newFakeStore()
	seedBatch(fs, 1, 1)
	mux := newTestMux(fs)

	// Only one weight overridden; the rest keep defaults, so this must not
	// trip weight validation.
	rr := doJSON(t, mux, http.MethodPost, "/suggestions",
		`{"game_ids":["g1"],"factors":{"proximity_weight":0.9}}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestGenerateEndpointErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"game_ids":`, http.StatusBadRequest},
		{"empty game ids", `{"game_ids":[]}`, http.StatusBadRequest},
		{"weight out of range", `{"game_ids":["g1"],"factors":{"proximity_weight":1.2}}`, http.StatusBadRequest},
		{"unknown games", `{"game_ids":["missing"]}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeStore()
			seedBatch(fs, 1, 1)
			mux := newTestMux(fs)
			rr := doJSON(t, mux, http.MethodPost, "/suggestions", tc.body, "")
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestListEndpointParamValidation(t *testing.T) {
	fs := newFakeStore()
	mux := newTestMux(fs)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"ok empty", "", http.StatusOK},
		{"ok filters", "?status=pending&page=2&limit=10&min_confidence=0.5", http.StatusOK},
		{"bad start date", "?start_date=03-14-2026", http.StatusBadRequest},
		{"bad end date", "?end_date=soon", http.StatusBadRequest},
		{"confidence above one", "?min_confidence=1.5", http.StatusBadRequest},
		{"zero page", "?page=0", http.StatusBadRequest},
		{"limit above max", "?limit=500", http.StatusBadRequest},
		{"unknown status", "?status=archived", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, mux, http.MethodGet, "/suggestions"+tc.query, "", "")
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestListEndpointDefaults(t *testing.T) {
	fs := newFakeStore()
	mux := newTestMux(fs)

	rr := doJSON(t, mux, http.MethodGet, "/suggestions", "", "")
	body := decodeBody(t, rr)
	if body["page"].(float64) != 1 || body["limit"].(float64) != 20 {
		t.Errorf("defaults page=%v limit=%v, want 1/20", body["page"], body["limit"])
	}
}

func TestGetEndpoint(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	mux := newTestMux(fs)

	rr := doJSON(t, mux, http.MethodGet, "/suggestions/s1", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	sg := body["suggestion"].(map[string]any)
	if sg["id"] != "s1" || sg["game_id"] != "g1" {
		t.Errorf("suggestion = %v, want s1/g1", sg)
	}

	if rr := doJSON(t, mux, http.MethodGet, "/suggestions/nope", "", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rr.Code)
	}
}

func TestAcceptEndpoint(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	mux := newTestMux(fs)

	rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/accept", "", "admin-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["assignment"] == nil {
		t.Error("response missing assignment")
	}
}

func TestAcceptEndpointErrors(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	seedPending(fs, "s2", "g1")
	mux := newTestMux(fs)

	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/accept", "", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d, want 401", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/nope/accept", "", "admin-1"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rr.Code)
	}

	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/accept", "", "admin-1"); rr.Code != http.StatusOK {
		t.Fatalf("first accept: status = %d", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s2/accept", "", "admin-2"); rr.Code != http.StatusConflict {
		t.Errorf("game already assigned: status = %d, want 409", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/accept", "", "admin-1"); rr.Code != http.StatusNotFound {
		t.Errorf("re-accept: status = %d, want 404", rr.Code)
	}
}

func TestRejectEndpoint(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	mux := newTestMux(fs)

	rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/reject", `{"reason":"too far"}`, "admin-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if fs.suggestions["s1"].RejectionReason == nil || *fs.suggestions["s1"].RejectionReason != "too far" {
		t.Error("rejection reason not persisted")
	}
}

func TestRejectEndpointEmptyBody(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	mux := newTestMux(fs)

	rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/reject", "", "admin-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("empty body must be accepted: status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestRejectEndpointErrors(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	mux := newTestMux(fs)

	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/reject", "", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d, want 401", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/nope/reject", "", "admin-1"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rr.Code)
	}
}

func TestRouteDispatch(t *testing.T) {
	fs := newFakeStore()
	seedPending(fs, "s1", "g1")
	mux := newTestMux(fs)

	if rr := doJSON(t, mux, http.MethodDelete, "/suggestions", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /suggestions: status = %d, want 405", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPost, "/suggestions/s1/accept", "", "admin-1"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST action: status = %d, want 405", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1/archive", "", "admin-1"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown action: status = %d, want 404", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPut, "/suggestions/s1", "", "admin-1"); rr.Code != http.StatusNotFound {
		t.Errorf("short path: status = %d, want 404", rr.Code)
	}
}
