package klein

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// Dispatch Entry Point
// =============================================================================

// Resource returns the http.Handler the server layer mounts to funnel every
// accepted request into dispatch, wrapped in any middleware registered with
// Use.
func (k *Klein) Resource() http.Handler {
	var h http.Handler = &resource{app: k}
	for i := len(k.middleware) - 1; i >= 0; i-- {
		h = k.middleware[i](h)
	}
	return h
}

// resource adapts the application to net/http.
type resource struct {
	app *Klein
}

// ServeHTTP dispatches one request: pre-dispatch hooks first, then route
// matching, then handler invocation. NotFound and MethodNotAllowed become
// 404/405 responses here and never propagate as faults; handler errors and
// panics are not masked.
func (res *resource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app := res.app
	req := newRequest(app, w, r)

	// Hooks run unconditionally, before the match outcome is known.
	for _, hook := range app.requestHandlers {
		hook(req)
	}

	endpoint, params, err := app.Match(r)
	if err != nil {
		var mna *MethodNotAllowedError
		if errors.As(err, &mna) {
			w.Header().Set("Allow", strings.Join(mna.Allowed, ", "))
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		http.NotFound(w, r)
		return
	}

	handler, ok := app.endpoints[endpoint]
	if !ok {
		// Every endpoint name inserted into the rule set has a registry
		// entry; a miss here means the registration discipline is broken.
		panic(fmt.Sprintf("klein: matched endpoint %q has no registered handler", endpoint))
	}

	result, err := handler(req, params)
	if err != nil {
		res.writeError(req, endpoint, err)
		return
	}
	res.writeResult(req, result)
}

// =============================================================================
// Result Handling
// =============================================================================

// writeResult turns a handler's return value into the response.
func (res *resource) writeResult(req *Request, result any) {
	switch v := result.(type) {
	case nil:
		// Empty 200.

	case pending:
		// The handler completes the response out of band. Hold the
		// connection until it finishes or the client goes away.
		select {
		case <-req.Done():
		case <-req.r.Context().Done():
		}

	case string:
		req.Write([]byte(v))

	case []byte:
		req.Write(v)

	default:
		req.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(req.w).Encode(v); err != nil {
			res.app.logger.Error("response encode failed", "path", req.r.URL.Path, "error", err)
		}
	}
}

// writeError reports a handler failure to the client. An error carrying a
// StatusCode sets the response status; anything else is a 500.
func (res *resource) writeError(req *Request, endpoint string, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(http.StatusInternalServerError)
	if sc, ok := err.(interface{ StatusCode() int }); ok {
		status = sc.StatusCode()
		message = err.Error()
	}
	res.app.logger.Error("handler failed", "endpoint", endpoint, "path", req.r.URL.Path, "error", err)
	http.Error(req.w, message, status)
}
