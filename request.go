package klein

import (
	"net/http"
	"sync"
)

// =============================================================================
// Request
// =============================================================================

// Request is the per-request view handed to hooks and handlers. It wraps the
// underlying http.ResponseWriter and *http.Request and carries the routing
// state that exists only for the lifetime of one dispatch: the branch
// segments left over after a branch match, and a handle back to the
// application for reverse URL building.
//
// A Request is created when dispatch begins and is not reused. Handlers that
// return Pending keep writing to it from other goroutines and must call
// Finish exactly once when the response is complete.
type Request struct {
	w   http.ResponseWriter
	r   *http.Request
	app *Klein

	// branchSegments is never empty: a request that did not go through a
	// branch rule sees a single empty segment.
	branchSegments []string

	finishOnce sync.Once
	done       chan struct{}
}

// newRequest builds the Request for one dispatch.
func newRequest(app *Klein, w http.ResponseWriter, r *http.Request) *Request {
	return &Request{
		w:              w,
		r:              r,
		app:            app,
		branchSegments: []string{""},
		done:           make(chan struct{}),
	}
}

// HTTP returns the underlying *http.Request.
func (req *Request) HTTP() *http.Request {
	return req.r
}

// BranchSegments returns the path segments remaining beneath a branch mount
// point. For a request that matched the mount point exactly, or matched a
// non-branch rule, it returns a single empty segment.
//
// With the pattern "/api/" registered, a request for /api/sub/path yields
// ["sub", "path"] and a request for /api/ yields [""].
func (req *Request) BranchSegments() []string {
	return req.branchSegments
}

// URLFor builds the URL for a registered endpoint using the application's
// rule set. See Klein.URLFor.
func (req *Request) URLFor(endpoint string, params Params) (string, error) {
	return req.app.URLFor(endpoint, params)
}

// =============================================================================
// Response Surface
// =============================================================================

// Header returns the response header map.
func (req *Request) Header() http.Header {
	return req.w.Header()
}

// WriteHeader writes the response status code.
func (req *Request) WriteHeader(status int) {
	req.w.WriteHeader(status)
}

// Write writes response body bytes.
func (req *Request) Write(p []byte) (int, error) {
	return req.w.Write(p)
}

// Redirect sets the outbound status and Location header for an HTTP redirect
// to url, finishes the response, and returns the Pending sentinel so it can
// be used as a handler's return value:
//
//	app.Route("/old", func(req *klein.Request, _ klein.Params) (any, error) {
//	    return req.Redirect("/new"), nil
//	})
func (req *Request) Redirect(url string) any {
	http.Redirect(req.w, req.r, url, http.StatusFound)
	req.Finish()
	return Pending
}

// Finish marks the response complete, releasing the dispatch that is keeping
// the connection open for a Pending result. Safe to call more than once;
// only the first call has an effect.
func (req *Request) Finish() {
	req.finishOnce.Do(func() {
		close(req.done)
	})
}

// Done returns a channel closed when Finish is called.
func (req *Request) Done() <-chan struct{} {
	return req.done
}
