package klein

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestRequestDefaultBranchSegments(t *testing.T) {
	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !reflect.DeepEqual(req.BranchSegments(), []string{""}) {
		t.Errorf("expected default [\"\"], got %v", req.BranchSegments())
	}
}

func TestRequestRedirect(t *testing.T) {
	app := New(Config{})
	rec := httptest.NewRecorder()
	req := newRequest(app, rec, httptest.NewRequest(http.MethodGet, "/old", nil))

	result := req.Redirect("/new")

	if result != any(Pending) {
		t.Error("expected Redirect to return the Pending sentinel")
	}
	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/new" {
		t.Errorf("expected Location '/new', got %q", loc)
	}
	select {
	case <-req.Done():
	default:
		t.Error("expected request to be finished after Redirect")
	}
}

func TestRequestFinishIsIdempotent(t *testing.T) {
	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	req.Finish()
	req.Finish() // must not panic on double close

	select {
	case <-req.Done():
	default:
		t.Error("expected done channel to be closed")
	}
}

func TestRequestURLForDelegatesToApp(t *testing.T) {
	app := New(Config{})
	app.Route("/item/{id:[0-9]+}", okHandler, WithEndpoint("item"))
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	url, err := req.URLFor("item", Params{"id": "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "/item/7" {
		t.Errorf("expected '/item/7', got %q", url)
	}
}
