// Package klein is a small request-routing layer that binds URL patterns to
// handler functions and dispatches incoming HTTP requests to them.
//
// It glues two existing capabilities together: gorilla/mux supplies the URL
// pattern matching, method constraints, and reverse URL building; net/http
// supplies the server and connection handling. Klein itself owns only the
// routing contract: how patterns are registered, how trailing-slash "branch"
// patterns capture arbitrary sub-paths, and how a matched rule resolves to a
// handler.
//
// Create an app, register routes, and serve it:
//
//	app := klein.New(klein.Config{})
//
//	app.Route("/", func(req *klein.Request, _ klein.Params) (any, error) {
//	    return "Hello", nil
//	})
//
//	app.Route("/item/{id:[0-9]+}", func(req *klein.Request, p klein.Params) (any, error) {
//	    return fmt.Sprintf("item %s", p["id"]), nil
//	}, klein.WithEndpoint("item"))
//
//	app.Run(":8080")
//
// A pattern ending in "/" is a branch route: it also matches any deeper
// sub-path, and the handler can inspect the unmatched remainder via
// Request.BranchSegments.
package klein

import "net"

// =============================================================================
// Handler Types
// =============================================================================

// Handler handles a matched request.
//
// The returned value becomes the response body: a string or []byte is written
// verbatim, any other non-nil value is JSON-encoded, nil produces an empty
// 200 response, and Pending means the handler will complete the response
// asynchronously through the Request. A non-nil error propagates to the
// server layer unmasked.
type Handler func(req *Request, params Params) (any, error)

// RequestHandler is a pre-dispatch hook, run before route matching for every
// request (e.g. session initialization). Hooks run in registration order and
// do not produce the response themselves.
type RequestHandler func(req *Request)

// ListenerFactory serves connections on an auxiliary listener registered via
// AddFactory. *http.Server satisfies it.
type ListenerFactory interface {
	Serve(l net.Listener) error
}

// =============================================================================
// Pending Sentinel
// =============================================================================

// pending is the type of the Pending sentinel.
type pending struct{}

// Pending is returned by handlers that complete the response asynchronously,
// out of band, through the Request. Dispatch keeps the connection open until
// Request.Finish is called or the client disconnects.
//
//	app.Route("/slow", func(req *klein.Request, _ klein.Params) (any, error) {
//	    go func() {
//	        time.Sleep(time.Second)
//	        req.Write([]byte("done"))
//	        req.Finish()
//	    }()
//	    return klein.Pending, nil
//	})
var Pending pending

// restParam is the reserved parameter name under which a branch rule captures
// the trailing path remainder. It never reaches handlers.
const restParam = "__rest__"

// branchSuffix is appended to an endpoint name to form the derived branch
// endpoint registered alongside a trailing-slash pattern.
const branchSuffix = "_branch"
