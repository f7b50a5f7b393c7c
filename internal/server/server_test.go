package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/observability"
	"github.com/matzehuels/imgblocks/pkg/workspace"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(cfg, nil, nil, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeView(t *testing.T, resp *http.Response) workspace.View {
	t.Helper()
	var v workspace.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, want, buf.String())
	}
}

func createDoc(t *testing.T, ts *httptest.Server, url string) workspace.View {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/api/v1/documents", `{"url":"`+url+`"}`)
	expectStatus(t, resp, http.StatusCreated)
	return decodeView(t, resp)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp := do(t, ts, http.MethodGet, "/health", "")
	expectStatus(t, resp, http.StatusOK)
}

func TestParse(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp := do(t, ts, http.MethodPost, "/api/v1/parse",
		`{"url":"https://res.cloudinary.com/demo/image/upload/c_fill/pic.png"}`)
	expectStatus(t, resp, http.StatusOK)

	var loc location.Location
	json.NewDecoder(resp.Body).Decode(&loc)
	want := location.Location{
		BaseURL:  "https://res.cloudinary.com/demo/image/upload/",
		PublicID: "c_fill/pic.png",
		Dialect:  location.DialectCDN,
	}
	if loc != want {
		t.Errorf("parse = %+v, want %+v", loc, want)
	}
}

func TestParseBadBody(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp := do(t, ts, http.MethodPost, "/api/v1/parse", `{`)
	expectStatus(t, resp, http.StatusBadRequest)

	var body map[string]errorBody
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"].Code != errors.ErrCodeInvalidInput {
		t.Errorf("error code = %q", body["error"].Code)
	}
}

func TestStrictURLs(t *testing.T) {
	ts := newTestServer(t, Config{StrictURLs: true})
	resp := do(t, ts, http.MethodPost, "/api/v1/documents", `{"url":"ftp://example.com/a.jpg"}`)
	expectStatus(t, resp, http.StatusBadRequest)

	lax := newTestServer(t, Config{})
	resp = do(t, lax, http.MethodPost, "/api/v1/documents", `{"url":"a.jpg"}`)
	expectStatus(t, resp, http.StatusCreated)
}

func TestParamsKeepNumberText(t *testing.T) {
	ts := newTestServer(t, Config{})
	doc := createDoc(t, ts, "https://cdn.example.com/img.jpg")
	base := "/api/v1/documents/" + doc.ID

	do(t, ts, http.MethodPost, base+"/blocks", `{"type":"dpr"}`)
	resp := do(t, ts, http.MethodPatch, base+"/blocks/0/params", `{"dpr":1.0}`)
	expectStatus(t, resp, http.StatusOK)
	v := decodeView(t, resp)
	if want := "https://cdn.example.com/dpr_1.0/img.jpg"; v.URL != want {
		t.Errorf("URL = %q, want %q", v.URL, want)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})
	doc := createDoc(t, ts, "https://cdn.example.com/img.jpg")
	base := "/api/v1/documents/" + doc.ID

	resp := do(t, ts, http.MethodPost, base+"/blocks", `{"type":"crop"}`)
	expectStatus(t, resp, http.StatusCreated)
	v := decodeView(t, resp)
	cropID := v.Blocks[0].ID

	resp = do(t, ts, http.MethodPatch, base+"/blocks/0/params", `{"mode":"fill","width":800,"height":600}`)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, ts, http.MethodPost, base+"/blocks", `{"type":"quality"}`)
	v = decodeView(t, resp)
	if want := "https://cdn.example.com/c_fill,w_800,h_600/q_auto/img.jpg"; v.URL != want {
		t.Errorf("URL = %q, want %q", v.URL, want)
	}

	resp = do(t, ts, http.MethodPost, base+"/blocks/1/up", "")
	v = decodeView(t, resp)
	if want := "https://cdn.example.com/q_auto/c_fill,w_800,h_600/img.jpg"; v.URL != want {
		t.Errorf("URL after move = %q, want %q", v.URL, want)
	}

	resp = do(t, ts, http.MethodPost, base+"/blocks/1/toggle", "")
	v = decodeView(t, resp)
	for _, b := range v.Blocks {
		if b.ID == 1 && b.Expanded {
			t.Error("toggle should collapse the block")
		}
	}

	resp = do(t, ts, http.MethodDelete, base+"/blocks/"+strconv.Itoa(cropID), "")
	v = decodeView(t, resp)
	if want := "https://cdn.example.com/q_auto/img.jpg"; v.URL != want {
		t.Errorf("URL after remove = %q", v.URL)
	}

	resp = do(t, ts, http.MethodPut, base+"/url", `{"url":"https://www.chanel.com/images/t_hero///bag.png"}`)
	v = decodeView(t, resp)
	if want := "https://www.chanel.com/images/t_hero///q_auto/bag.png"; v.URL != want {
		t.Errorf("URL after re-parse = %q", v.URL)
	}

	resp = do(t, ts, http.MethodDelete, base, "")
	expectStatus(t, resp, http.StatusNoContent)
	resp = do(t, ts, http.MethodGet, base, "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestEffects(t *testing.T) {
	ts := newTestServer(t, Config{})
	doc := createDoc(t, ts, "https://cdn.example.com/img.jpg")
	base := "/api/v1/documents/" + doc.ID

	do(t, ts, http.MethodPost, base+"/blocks", `{"type":"effects"}`)
	do(t, ts, http.MethodPut, base+"/blocks/0/effects/sharpen", `{"enabled":true}`)
	do(t, ts, http.MethodPut, base+"/blocks/0/effects/grayscale", `{"enabled":true}`)
	resp := do(t, ts, http.MethodPut, base+"/blocks/0/effects/grayscale", `{"enabled":true}`)
	v := decodeView(t, resp)
	if v.Blocks[0].Segment != "e_grayscale,e_sharpen" {
		t.Errorf("segment = %q", v.Blocks[0].Segment)
	}

	resp = do(t, ts, http.MethodPut, base+"/blocks/0/effects/sharpen", `{"enabled":false}`)
	v = decodeView(t, resp)
	if v.URL != "https://cdn.example.com/e_grayscale/img.jpg" {
		t.Errorf("URL = %q", v.URL)
	}
}

func TestUnknownBlockIsNoop(t *testing.T) {
	ts := newTestServer(t, Config{})
	doc := createDoc(t, ts, "https://cdn.example.com/img.jpg")
	base := "/api/v1/documents/" + doc.ID
	do(t, ts, http.MethodPost, base+"/blocks", `{"type":"dpr"}`)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodDelete, base + "/blocks/42", ""},
		{http.MethodPost, base + "/blocks/42/up", ""},
		{http.MethodPost, base + "/blocks/0/up", ""},
		{http.MethodPost, base + "/blocks/0/down", ""},
		{http.MethodPatch, base + "/blocks/42/params", `{"width":1}`},
		{http.MethodPut, base + "/blocks/0/effects/sharpen", `{"enabled":true}`},
	} {
		resp := do(t, ts, req.method, req.path, req.body)
		expectStatus(t, resp, http.StatusOK)
		if v := decodeView(t, resp); v.URL != "https://cdn.example.com/dpr_2.0/img.jpg" {
			t.Errorf("%s %s changed the document: %q", req.method, req.path, v.URL)
		}
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, Config{})
	doc := createDoc(t, ts, "https://cdn.example.com/img.jpg")
	base := "/api/v1/documents/" + doc.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown document", http.MethodGet, "/api/v1/documents/nope", "", 404, errors.ErrCodeDocumentNotFound},
		{"unknown document edit", http.MethodPost, "/api/v1/documents/nope/blocks", `{"type":"crop"}`, 404, errors.ErrCodeDocumentNotFound},
		{"bad block type", http.MethodPost, base + "/blocks", `{"type":"blur"}`, 400, errors.ErrCodeInvalidBlockType},
		{"bad block id", http.MethodPost, base + "/blocks/abc/up", "", 400, errors.ErrCodeInvalidInput},
		{"bad param key", http.MethodPatch, base + "/blocks/0/params", `{"bad key":1}`, 400, errors.ErrCodeInvalidParam},
		{"bad diagram format", http.MethodGet, base + "/diagram?format=pdf", "", 400, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.body)
			expectStatus(t, resp, tt.status)
			var body map[string]errorBody
			json.NewDecoder(resp.Body).Decode(&body)
			if body["error"].Code != tt.code {
				t.Errorf("code = %q, want %q", body["error"].Code, tt.code)
			}
		})
	}
}

func TestDiagramDOT(t *testing.T) {
	ts := newTestServer(t, Config{})
	doc := createDoc(t, ts, "https://cdn.example.com/img.jpg")
	base := "/api/v1/documents/" + doc.ID
	do(t, ts, http.MethodPost, base+"/blocks", `{"type":"format"}`)

	resp := do(t, ts, http.MethodGet, base+"/diagram?format=dot", "")
	expectStatus(t, resp, http.StatusOK)
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `f_auto`) {
		t.Errorf("diagram missing segment:\n%s", buf.String())
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestConcurrentDocuments(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := createDoc(t, ts, "https://cdn.example.com/a.jpg")
	b := createDoc(t, ts, "https://cdn.example.com/b.jpg")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, id := range []string{a.ID, b.ID} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/documents/"+id+"/blocks",
					strings.NewReader(`{"type":"quality"}`))
				resp, err := ts.Client().Do(req)
				if err == nil {
					resp.Body.Close()
				}
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{a.ID, b.ID} {
		v := decodeView(t, do(t, ts, http.MethodGet, "/api/v1/documents/"+id, ""))
		if len(v.Blocks) != 10 {
			t.Errorf("document %s has %d blocks, want 10", id, len(v.Blocks))
		}
		for i, blk := range v.Blocks {
			if blk.Order != i {
				t.Errorf("document %s block %d has Order %d", id, i, blk.Order)
			}
		}
	}
}

type httpRecorder struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *httpRecorder) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	rec := &httpRecorder{}
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	ts := newTestServer(t, Config{})
	do(t, ts, http.MethodGet, "/health", "")
	do(t, ts, http.MethodGet, "/api/v1/documents/missing", "")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.statuses) != 2 || rec.statuses[0] != 200 || rec.statuses[1] != 404 {
		t.Errorf("statuses = %v, want [200 404]", rec.statuses)
	}
}
