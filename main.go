package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"github.com/utilitywarehouse/lohr/internal/utils"
	"github.com/utilitywarehouse/lohr/mirror"
	"github.com/utilitywarehouse/lohr/queue"
	"github.com/utilitywarehouse/lohr/settings"
)

var (
	loggerLevel = new(slog.LevelVar)
	logger      *slog.Logger

	levelStrings = map[string]slog.Level{
		"trace": slog.Level(-8),
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "home",
			Sources: cli.EnvVars("LOHR_HOME"),
			Value:   "./",
			Usage:   "Directory where mirrors are stored.",
		},
		&cli.StringFlag{
			Name:     "secret",
			Sources:  cli.EnvVars("LOHR_SECRET"),
			Required: true,
			Usage:    "Shared secret used to verify webhook signatures.",
		},
		&cli.StringFlag{
			Name:    "config",
			Sources: cli.EnvVars("LOHR_CONFIG"),
			Usage:   "Path to the config file. (default: <home>/lohr-config.yaml)",
		},
		&cli.StringFlag{
			Name:    "listen",
			Sources: cli.EnvVars("LOHR_LISTEN"),
			Value:   ":8000",
			Usage:   "Address the http server listens on.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
			Usage:   "Log level",
		},
		&cli.StringFlag{
			Name:    "metrics-namespace",
			Sources: cli.EnvVars("METRICS_NAMESPACE"),
			Usage:   "Prefix of the prometheus metrics.",
		},
	}
)

func init() {
	loggerLevel.Set(slog.LevelInfo)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: loggerLevel,
	}))
}

// canonicalHome returns absolute path of home with all symlinks resolved,
// home must be an existing directory
func canonicalHome(home string) (string, error) {
	abs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path of home dir err:%w", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("unable to resolve home dir err:%w", err)
	}
	if !utils.IsDir(abs) {
		return "", fmt.Errorf("home '%s' is not a directory", abs)
	}
	return abs, nil
}

func newRouter(wh http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	// webhook handler does its own method check
	r.Handle("/", wh)
	return r
}

func main() {
	cmd := &cli.Command{
		Name:  "lohr",
		Usage: "lohr mirrors repositories to multiple remotes on webhook deliveries.",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {

			// set log level according to argument
			if v, ok := levelStrings[strings.ToLower(c.String("log-level"))]; ok {
				loggerLevel.Set(v)
			}

			home, err := canonicalHome(c.String("home"))
			if err != nil {
				return err
			}

			secret := c.String("secret")
			if secret == "" {
				return fmt.Errorf("secret cannot be empty")
			}

			configPath := c.String("config")
			if configPath == "" {
				configPath = defaultConfigPath(home)
			}

			conf, err := parseConfigFile(configPath)
			if err != nil {
				return fmt.Errorf("unable to parse config file %s err:%w", configPath, err)
			}

			mirror.EnableMetrics(c.String("metrics-namespace"), prometheus.DefaultRegisterer)
			queue.EnableMetrics(c.String("metrics-namespace"), prometheus.DefaultRegisterer)
			enableMetrics(c.String("metrics-namespace"), prometheus.DefaultRegisterer)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, c.String("listen"), home, []byte(secret), conf)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("failed to run app", "err", err)
		os.Exit(1)
	}
}

// run starts the queue worker and the http server and blocks till ctx is
// cancelled
func run(ctx context.Context, listen, home string, secret []byte, conf *settings.Settings) error {
	jobConf := mirror.Config{
		Home:        home,
		Settings:    conf,
		Credentials: mirror.NewCredentials(conf.Auth, os.TempDir(), logger.With("logger", "credentials")),
		Log:         logger.With("logger", "mirror"),
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	jobs := queue.New(logger.With("logger", "queue"))
	go jobs.Start(workerCtx)

	wh := &WebhookHandler{
		secret:   secret,
		settings: conf,
		enqueue: func(repo mirror.Repository) error {
			return jobs.Enqueue(mirror.NewJob(repo, jobConf))
		},
		log: logger.With("logger", "webhook"),
	}

	server := &http.Server{
		Addr:              listen,
		Handler:           newRouter(wh),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting web server", "addr", listen, "home", home)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serverErr:
		logger.Error("web server failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sErr := server.Shutdown(shutdownCtx); sErr != nil {
		logger.Error("unable to shutdown web server", "err", sErr)
	}

	// stop worker, in case server failed ctx is still valid
	stopWorker()
	logger.Info("waiting for in-flight mirror job to finish")
	<-jobs.Stopped

	return err
}
