package main

import (
	"flag"
	"os"
	"strings"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"
	_ "go.uber.org/automaxprocs"

	"github.com/sober-studio/token-service/internal/conf"
	"github.com/sober-studio/token-service/internal/pkg/cron"
	"github.com/sober-studio/token-service/internal/pkg/env"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "token-service"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
	// flagenv 覆盖配置文件中的 app.env
	flagenv string

	overrides conf.Overrides

	id, _ = os.Hostname()
)

// headerFlags 可重复的 -header NAME:VALUE
type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ",") }

func (h *headerFlags) Set(v string) error {
	if _, _, err := conf.ParseHeader(v); err != nil {
		return err
	}
	*h = append(*h, v)
	return nil
}

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagenv, "env", "", "runtime env, one of dev, test, prod")
	flag.StringVar(&overrides.Host, "host", "", "http listen host")
	flag.StringVar(&overrides.Port, "port", "", "http listen port")
	flag.StringVar(&overrides.RedisHost, "redis-host", "", "redis host")
	flag.StringVar(&overrides.RedisPort, "redis-port", "", "redis port")
	flag.StringVar(&overrides.DBIndex, "db-index", "", "redis database index")
	flag.StringVar(&overrides.RedisPassword, "redis-password", "", "redis password, falls back to $"+conf.PasswordEnv)
	flag.Var((*headerFlags)(&overrides.Headers), "header", "extra response header NAME:VALUE, repeatable")
}

func newApp(logger log.Logger, hs *http.Server, cs *cron.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			cs,
		),
	)
}

func main() {
	flag.Parse()

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	bc.SetDefaults()
	if flagenv != "" {
		bc.App.Env = flagenv
	}
	if err := overrides.Apply(&bc); err != nil {
		panic(err)
	}
	bc.ResolvePassword(os.LookupEnv)
	if err := bc.Validate(); err != nil {
		panic(err)
	}

	// 初始化环境
	env.Init(bc.App.Env)

	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)
	if env.IsProd() {
		logger = log.NewFilter(logger, log.FilterLevel(log.LevelInfo))
	}

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.App, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
