package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uberbrodt/procvisor/chronos"
	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/task"
)

// New returns a task serving /metrics on addr. A listener failure ends the
// task like any other unexpected exit.
func New(addr string, opts ...task.StartOpt) *task.Task {
	return task.New("metrics", task.LaunchFunc(func() ([]task.Member, error) {
		return launch(addr)
	}), opts...)
}

func launch(addr string) ([]task.Member, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}
	visor.Log().Info("Starting metrics server...", "addr", ln.Addr().String())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: chronos.Dur("5s")}

	return []task.Member{task.Go("http",
		func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), chronos.Dur("5s"))
			defer cancel()
			return srv.Shutdown(ctx)
		},
	)}, nil
}
