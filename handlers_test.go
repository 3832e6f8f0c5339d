package klein

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// =============================================================================
// Typed Handler Tests
// =============================================================================

func TestTypedBindsFields(t *testing.T) {
	type showParams struct {
		ID    int     `param:"id"`
		Kind  string  `param:"kind"`
		Ratio float64 `param:"ratio"`
		On    bool    `param:"on"`
	}

	var got showParams
	handler := Typed(func(req *Request, p showParams) (any, error) {
		got = p
		return nil, nil
	})

	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := handler(req, Params{"id": "42", "kind": "img", "ratio": "0.5", "on": "true"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := showParams{ID: 42, Kind: "img", Ratio: 0.5, On: true}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestTypedBindsSliceFromJoinedSegments(t *testing.T) {
	type pathParams struct {
		Parts []string `param:"rest"`
	}

	var got []string
	handler := Typed(func(req *Request, p pathParams) (any, error) {
		got = p.Parts
		return nil, nil
	})

	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := handler(req, Params{"rest": "a/b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestTypedMissingParamKeepsZeroValue(t *testing.T) {
	type p struct {
		ID int `param:"id"`
	}

	handler := Typed(func(req *Request, v p) (any, error) {
		return v.ID, nil
	})

	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	result, err := handler(req, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value, got %v", result)
	}
}

func TestTypedParseFailureIs400(t *testing.T) {
	type p struct {
		ID int `param:"id"`
	}

	handler := Typed(func(req *Request, v p) (any, error) {
		t.Error("handler must not run on a parse failure")
		return nil, nil
	})

	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := handler(req, Params{"id": "abc"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestTypedPanicsOnNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-struct parameter type")
		}
	}()
	Typed(func(req *Request, p int) (any, error) { return nil, nil })
}

func TestTypedPanicsOnUnsupportedFieldType(t *testing.T) {
	type bad struct {
		M map[string]string `param:"m"`
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported field type")
		}
	}()
	Typed(func(req *Request, p bad) (any, error) { return nil, nil })
}

func TestTypedIgnoresUntaggedFields(t *testing.T) {
	type p struct {
		ID   int `param:"id"`
		Skip func()
	}

	// The untagged func field must not trip the startup-time validation.
	handler := Typed(func(req *Request, v p) (any, error) {
		return v.ID, nil
	})

	app := New(Config{})
	req := newRequest(app, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	result, err := handler(req, Params{"id": "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 3 {
		t.Errorf("expected 3, got %v", result)
	}
}

func TestTypedEndToEnd(t *testing.T) {
	type itemParams struct {
		ID int `param:"id"`
	}

	app := New(Config{})
	app.Route("/item/{id:[0-9]+}", Typed(func(req *Request, p itemParams) (any, error) {
		return map[string]int{"id": p.ID}, nil
	}), WithEndpoint("item"))

	rec := httptest.NewRecorder()
	app.Resource().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/item/42", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "{\"id\":42}\n" {
		t.Errorf("unexpected body %q", body)
	}
}

// =============================================================================
// RouteTyped Tests
// =============================================================================

func TestRouteTypedPanicsOnUncoveredPlaceholder(t *testing.T) {
	type itemParams struct {
		ID int `param:"id"`
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for placeholder without a tagged field")
		}
	}()

	app := New(Config{})
	RouteTyped(app, "/item/{id:[0-9]+}/{slug}", func(req *Request, p itemParams) (any, error) {
		return nil, nil
	}, WithEndpoint("item"))
}

func TestRouteTypedAcceptsCoveredPattern(t *testing.T) {
	type itemParams struct {
		ID   int    `param:"id"`
		Slug string `param:"slug"`
	}

	app := New(Config{})
	RouteTyped(app, "/item/{id:[0-9]+}/{slug}", func(req *Request, p itemParams) (any, error) {
		return p.Slug, nil
	}, WithEndpoint("item"))

	rec := httptest.NewRecorder()
	app.Resource().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/item/42/widget", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "widget" {
		t.Errorf("unexpected body %q", body)
	}
}

type pingParams struct{}

func showPing(req *Request, _ pingParams) (any, error) { return "pong", nil }

func TestRouteTypedDefaultEndpointFromFunction(t *testing.T) {
	app := New(Config{})
	RouteTyped(app, "/ping", showPing)

	url, err := app.URLFor("showPing", nil)
	if err != nil {
		t.Fatalf("expected endpoint derived from the function name: %v", err)
	}
	if url != "/ping" {
		t.Errorf("expected /ping, got %q", url)
	}
}

func TestTemplateVars(t *testing.T) {
	cases := []struct {
		pattern string
		want    []string
	}{
		{"/plain", nil},
		{"/item/{id}", []string{"id"}},
		{"/item/{id:[0-9]+}/{slug}", []string{"id", "slug"}},
		{"/code/{id:[0-9]{3}}", []string{"id"}},
		{"/a/{x}/b/{y:.*}", []string{"x", "y"}},
	}
	for _, tc := range cases {
		if got := templateVars(tc.pattern); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("templateVars(%q) = %v, want %v", tc.pattern, got, tc.want)
		}
	}
}
