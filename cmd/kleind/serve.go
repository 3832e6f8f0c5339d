package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/trenton42/klein"
	"github.com/trenton42/klein/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		metricsPort int
		wsPort      int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
			app := klein.New(klein.Config{Logger: logger})

			registerRoutes(app)

			app.AddRequestHandler(func(req *klein.Request) {
				logger.Info("request", "method", req.HTTP().Method, "path", req.HTTP().URL.Path)
			})

			app.Use(
				middleware.Prometheus(),
				middleware.OpenTelemetry(),
			)

			app.AddFactory(metricsPort, &http.Server{Handler: promhttp.Handler()})
			app.AddFactory(wsPort, &http.Server{Handler: echoHandler(logger)})

			return app.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "address to listen on")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 9090, "auxiliary port for Prometheus metrics")
	cmd.Flags().IntVar(&wsPort, "ws-port", 9091, "auxiliary port for the websocket echo service")

	return cmd
}

// registerRoutes sets up the demonstration routes.
func registerRoutes(app *klein.Klein) {
	type itemParams struct {
		ID int `param:"id"`
	}
	klein.RouteTyped(app, "/item/{id:[0-9]+}", func(req *klein.Request, p itemParams) (any, error) {
		return map[string]int{"id": p.ID}, nil
	}, klein.WithEndpoint("item"), klein.WithMethods(http.MethodGet))

	// Branch route: /files/ matches the mount point and any sub-path.
	app.Route("/files/", func(req *klein.Request, _ klein.Params) (any, error) {
		return map[string][]string{"segments": req.BranchSegments()}, nil
	}, klein.WithEndpoint("files"))

	app.Route("/item-link/{id:[0-9]+}", func(req *klein.Request, p klein.Params) (any, error) {
		url, err := req.URLFor("item", klein.Params{"id": p["id"]})
		if err != nil {
			return nil, err
		}
		return req.Redirect(url), nil
	}, klein.WithEndpoint("item_link"))

	// Completed out of band, one second after dispatch returns Pending.
	app.Route("/slow", func(req *klein.Request, _ klein.Params) (any, error) {
		go func() {
			time.Sleep(time.Second)
			fmt.Fprintln(req, "done")
			req.Finish()
		}()
		return klein.Pending, nil
	}, klein.WithEndpoint("slow"))

	// The root pattern is a branch route whose derived rule matches every
	// non-root path, so it goes last under first-match-in-insertion-order.
	app.Route("/", func(req *klein.Request, _ klein.Params) (any, error) {
		return "Hello from klein\n", nil
	}, klein.WithEndpoint("index"), klein.WithMethods(http.MethodGet))
}

// echoHandler upgrades connections and echoes every message back.
func echoHandler(logger *slog.Logger) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(messageType, message); err != nil {
				return
			}
		}
	})
}
