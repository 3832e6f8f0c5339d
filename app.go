package klein

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/mux"
)

// =============================================================================
// Klein Type
// =============================================================================

// Klein maintains the routing configuration of an application: the ordered
// rule set, the endpoint registry mapping endpoint names to handlers, the
// pre-dispatch hooks, and the auxiliary listener factories.
//
// All registration happens before serving starts; the rule set and endpoint
// registry are read-only during dispatch and need no locking.
type Klein struct {
	rules     *mux.Router
	endpoints map[string]Handler

	requestHandlers []RequestHandler
	factories       []listenerEntry
	middleware      []func(http.Handler) http.Handler

	config Config
	logger *slog.Logger

	httpServer *http.Server
	auxln      []net.Listener
}

// listenerEntry pairs an auxiliary port with its connection factory.
type listenerEntry struct {
	port    int
	factory ListenerFactory
}

// New creates a new application.
func New(cfg Config) *Klein {
	cfg = cfg.applyDefaults()
	return &Klein{
		rules:     mux.NewRouter(),
		endpoints: make(map[string]Handler),
		config:    cfg,
		logger:    cfg.Logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RouteOption configures route registration.
type RouteOption func(*routeConfig)

type routeConfig struct {
	endpoint  string
	methods   []string
	configure []func(*mux.Route)
}

// WithEndpoint sets the endpoint name for the route. If omitted, the name is
// derived from the handler's function name. Endpoint names are expected to
// be unique within an application; registering a duplicate silently replaces
// the prior handler (last registration wins).
func WithEndpoint(name string) RouteOption {
	return func(c *routeConfig) {
		c.endpoint = name
	}
}

// WithMethods restricts the route to the given HTTP methods. A request whose
// path matches but whose method is not listed is answered 405 with the
// allowed set, unless another rule accepts it.
func WithMethods(methods ...string) RouteOption {
	return func(c *routeConfig) {
		c.methods = append(c.methods, methods...)
	}
}

// WithRoute applies extra matching options directly to the underlying mux
// route (headers, queries, schemes, host).
//
//	app.Route("/hook", handler, klein.WithRoute(func(r *mux.Route) {
//	    r.Headers("Content-Type", "application/json")
//	}))
func WithRoute(fn func(*mux.Route)) RouteOption {
	return func(c *routeConfig) {
		c.configure = append(c.configure, fn)
	}
}

// Route registers handler for the URL pattern. The pattern uses the mux
// template syntax: literal segments and named placeholders with optional
// regexp constraints, e.g. "/item/{id:[0-9]+}".
//
// If pattern ends with "/", the route is a branch route and registration is
// split in two: a derived rule matching any non-empty sub-path beneath the
// pattern, registered under the endpoint name plus "_branch" and wired to a
// wrapper that exposes the remainder via Request.BranchSegments, and the
// exact rule for the pattern itself. Rules match in registration order;
// first match wins.
//
// Because matching is first-in-insertion-order, a branch route shadows every
// later rule beneath its mount point. In particular, a branch route at "/"
// matches every path, so register it after the more specific routes.
//
// Malformed patterns are not rejected here: the router surfaces them when
// the rule is matched or reverse-built, per its own contract. Registration
// itself never fails.
func (k *Klein) Route(pattern string, handler Handler, opts ...RouteOption) {
	var cfg routeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.endpoint == "" {
		cfg.endpoint = handlerName(handler)
	}

	if strings.HasSuffix(pattern, "/") {
		branchEndpoint := cfg.endpoint + branchSuffix
		k.endpoints[branchEndpoint] = branchWrapper(handler)
		k.addRule(pattern+"{"+restParam+":[^/].*}", branchEndpoint, cfg)
	}

	k.endpoints[cfg.endpoint] = handler
	k.addRule(pattern, cfg.endpoint, cfg)
}

// addRule inserts one rule into the rule set.
func (k *Klein) addRule(path, endpoint string, cfg routeConfig) {
	route := k.rules.NewRoute().Path(path).Name(endpoint)
	if len(cfg.methods) > 0 {
		route.Methods(cfg.methods...)
	}
	for _, fn := range cfg.configure {
		fn(route)
	}
	if err := route.GetError(); err != nil {
		// The router reports the error again at match/build time; the rule
		// simply never matches. Log it so the misregistration is visible.
		k.logger.Warn("route registration error", "pattern", path, "endpoint", endpoint, "error", err)
	}
}

// branchWrapper adapts handler for the derived branch rule: it strips the
// trailing-path capture from the parameter set, stores its segments on the
// request, and invokes the original handler.
func branchWrapper(handler Handler) Handler {
	return func(req *Request, params Params) (any, error) {
		rest := params[restParam]
		params = params.clone()
		delete(params, restParam)
		req.branchSegments = strings.Split(rest, "/")
		return handler(req, params)
	}
}

// handlerName derives the default endpoint name from the handler's declared
// function name. Anonymous handlers yield names like "func1"; pass
// WithEndpoint for those.
func handlerName(h any) string {
	name := runtime.FuncForPC(reflect.ValueOf(h).Pointer()).Name()
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// =============================================================================
// Application Surface
// =============================================================================

// AddRequestHandler appends a hook run before route matching on every
// request, in registration order. Hooks run regardless of whether the
// request ultimately matches a route.
func (k *Klein) AddRequestHandler(fn RequestHandler) {
	k.requestHandlers = append(k.requestHandlers, fn)
}

// AddFactory registers an auxiliary service to accept connections on port.
// Factories are started by Run, in registration order, bound to the same
// interface as the main listener.
func (k *Klein) AddFactory(port int, factory ListenerFactory) {
	k.factories = append(k.factories, listenerEntry{port: port, factory: factory})
}

// Use adds http.Handler middleware wrapped around the dispatch entry point
// returned by Resource. Middleware applies outermost-first in registration
// order.
func (k *Klein) Use(mw ...func(http.Handler) http.Handler) {
	k.middleware = append(k.middleware, mw...)
}

// Redirect is a convenience equivalent to req.Redirect(url): it sets up an
// HTTP redirect to url, finishes the response, and returns Pending.
func (k *Klein) Redirect(req *Request, url string) any {
	return req.Redirect(url)
}

// Rules returns the underlying rule set. Read-only after serving starts.
func (k *Klein) Rules() *mux.Router {
	return k.rules
}

// Endpoints returns the endpoint registry. Read-only after serving starts.
func (k *Klein) Endpoints() map[string]Handler {
	return k.endpoints
}

// Logger returns the application logger.
func (k *Klein) Logger() *slog.Logger {
	return k.logger
}

// =============================================================================
// Matching
// =============================================================================

// Match resolves a request against the rule set without dispatching it.
// It returns the matched endpoint name and the extracted parameters, or
// ErrNotFound when no rule matches the path, or a *MethodNotAllowedError
// when rules match the path but none accepts the method.
func (k *Klein) Match(r *http.Request) (string, Params, error) {
	var match mux.RouteMatch
	if k.rules.Match(r, &match) {
		params := make(Params, len(match.Vars))
		for name, value := range match.Vars {
			params[name] = value
		}
		return match.Route.GetName(), params, nil
	}
	if errors.Is(match.MatchErr, mux.ErrMethodMismatch) {
		return "", nil, &MethodNotAllowedError{Allowed: k.allowedMethods(r)}
	}
	return "", nil, ErrNotFound
}

// knownMethods are the verbs probed to compute the Allow set for a 405.
var knownMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
}

// allowedMethods returns the sorted set of methods some rule accepts for the
// request's path.
func (k *Klein) allowedMethods(r *http.Request) []string {
	var allowed []string
	probe := new(http.Request)
	*probe = *r
	for _, method := range knownMethods {
		probe.Method = method
		var match mux.RouteMatch
		if k.rules.Match(probe, &match) {
			allowed = append(allowed, method)
		}
	}
	sort.Strings(allowed)
	return allowed
}

// =============================================================================
// Reverse URL Construction
// =============================================================================

// URLFor builds the URL path for a registered endpoint, substituting params
// into the pattern's placeholders. It returns a *BuildError when the
// endpoint is unknown, a required parameter is missing, or a value does not
// satisfy the placeholder's constraint.
func (k *Klein) URLFor(endpoint string, params Params) (string, error) {
	route := k.rules.Get(endpoint)
	if route == nil {
		return "", &BuildError{Endpoint: endpoint}
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, name, value)
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", &BuildError{Endpoint: endpoint, Err: err}
	}
	return u.String(), nil
}

// =============================================================================
// Run
// =============================================================================

// Run starts an HTTP server on addr serving the application, starts every
// registered auxiliary factory bound to the same interface, and blocks until
// SIGINT/SIGTERM or a listener error. It should be the last thing the
// application does.
func (k *Klein) Run(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	k.httpServer = &http.Server{
		Addr:              addr,
		Handler:           k.Resource(),
		ReadHeaderTimeout: k.config.Server.ReadHeaderTimeout,
		ReadTimeout:       k.config.Server.ReadTimeout,
		WriteTimeout:      k.config.Server.WriteTimeout,
		IdleTimeout:       k.config.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		k.logger.Info("server starting", "address", addr)
		errCh <- k.httpServer.ListenAndServe()
	}()

	for _, entry := range k.factories {
		ln, lerr := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(entry.port)))
		if lerr != nil {
			k.Shutdown(context.Background())
			return lerr
		}
		k.auxln = append(k.auxln, ln)
		k.logger.Info("auxiliary listener starting", "port", entry.port)
		go func(entry listenerEntry, ln net.Listener) {
			if serr := entry.factory.Serve(ln); serr != nil &&
				!errors.Is(serr, net.ErrClosed) && !errors.Is(serr, http.ErrServerClosed) {
				k.logger.Error("auxiliary listener failed", "port", entry.port, "error", serr)
			}
		}(entry, ln)
	}

	select {
	case err := <-errCh:
		k.closeAuxListeners()
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		k.logger.Info("shutting down...")
		return k.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the main server and closes the auxiliary
// listeners.
func (k *Klein) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, k.config.Server.ShutdownTimeout)
	defer cancel()

	k.closeAuxListeners()

	if k.httpServer != nil {
		if err := k.httpServer.Shutdown(ctx); err != nil {
			k.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	k.logger.Info("server shutdown complete")
	return nil
}

func (k *Klein) closeAuxListeners() {
	for _, ln := range k.auxln {
		ln.Close()
	}
	k.auxln = nil
}
