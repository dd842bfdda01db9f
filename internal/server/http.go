package server

import (
	nethttp "net/http"

	v1 "github.com/sober-studio/token-service/api/token/v1"
	"github.com/sober-studio/token-service/internal/conf"
	"github.com/sober-studio/token-service/internal/job"
	"github.com/sober-studio/token-service/internal/pkg/debug"
	"github.com/sober-studio/token-service/internal/pkg/header"
	"github.com/sober-studio/token-service/internal/pkg/render"
	"github.com/sober-studio/token-service/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	token *service.TokenService,
	probe *job.StoreProbeJob,
	gatherer prometheus.Gatherer,
	logger log.Logger,
) *http.Server {

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
		http.Filter(debug.Filter, header.Filter(c.Http.Headers)),
		http.ResponseEncoder(render.ResponseEncoder),
		http.ErrorEncoder(render.ErrorEncoder),
	}

	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}

	srv := http.NewServer(opts...)
	v1.RegisterTokenHTTPServer(srv, token)
	srv.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv.HandleFunc("/healthz", healthz(probe))

	return srv
}

// healthz 反映最近一次存储探测的结果
func healthz(probe *job.StoreProbeJob) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !probe.Healthy() {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
