package main

import (
	"bytes"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"crypto/tls"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-pluto/maildir"
	"github.com/go-pluto/mailfetch/config"
	"github.com/go-pluto/mailfetch/crypto"
	"github.com/go-pluto/mailfetch/pop3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Functions

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

// initAuthMethod maps the textual method name from the
// validated config onto the session's variant selector.
func initAuthMethod(name string) pop3.AuthMethod {

	switch name {
	case "LOGIN":
		return pop3.AuthLogin
	case "XOAUTH2":
		return pop3.AuthXOAuth2
	default:
		return pop3.AuthCRAMMD5
	}
}

func main() {

	// Parse command-line flag that defines a config path.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config", "err", err,
		)
		os.Exit(1)
	}

	// Read the account secret from the environment.
	env, err := config.LoadEnv()
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the environment", "err", err,
		)
		os.Exit(1)
	}

	metrics := NewClientMetrics(conf.PrometheusAddr)

	// If configured, expose the metrics endpoint.
	if conf.PrometheusAddr != "" {

		go func() {

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())

			if err := http.ListenAndServe(conf.PrometheusAddr, mux); err != nil {
				level.Error(logger).Log(
					"msg", "failed to serve metrics endpoint", "err", err,
				)
			}
		}()
	}

	// Build the TLS configuration if an encrypted
	// connection was requested.
	var tlsConfig *tls.Config
	if conf.Server.UseTLS {

		tlsConfig, err = crypto.NewClientTLSConfig(conf.Server.Host, conf.Server.RootCertLoc, conf.Server.InsecureSkipVerify, nil)
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to build the TLS config", "err", err,
			)
			os.Exit(2)
		}
	}

	// Connect to the POP3 server and consume the greeting.
	session, err := pop3.Dial(conf.Server.Host, conf.Server.Port, tlsConfig, (time.Duration(conf.Server.TimeoutSec) * time.Second))
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to connect to the POP3 server", "err", err,
		)
		os.Exit(3)
	}

	metrics.Fetcher.Connects.Add(1)

	svc := pop3.NewLoggingService(session, logger)
	defer svc.Close()

	if err := svc.Authenticate(initAuthMethod(conf.Auth.Method), conf.Auth.User, env.Secret); err != nil {

		metrics.Fetcher.AuthFailures.Add(1)

		level.Error(logger).Log(
			"msg", "failed to authenticate", "err", err,
		)
		os.Exit(4)
	}

	// Make sure the maildir to deliver into exists.
	md := maildir.Dir(conf.Maildir.Loc)
	if err := md.Check(); err != nil {

		if err := md.Create(); err != nil {
			level.Error(logger).Log(
				"msg", "failed to create the maildir", "err", err,
			)
			os.Exit(5)
		}
	}

	numbers, err := svc.MessageNumbers()
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to list the mailbox", "err", err,
		)
		os.Exit(6)
	}

	options := pop3.FetchNormal
	if conf.Maildir.HeadersOnly {
		options = pop3.FetchHeadersOnly
	}

	// Fetch every message strictly one after the other
	// and deliver each into the maildir.
	for _, number := range numbers {

		msg, err := svc.Fetch(number, options, conf.Maildir.DeleteAfterFetch)
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to fetch message", "number", number, "err", err,
			)
			os.Exit(7)
		}

		var buf bytes.Buffer
		if err := msg.WriteTo(&buf); err != nil {
			level.Error(logger).Log(
				"msg", "failed to serialize fetched message", "number", number, "err", err,
			)
			os.Exit(7)
		}

		delivery, err := md.NewDelivery()
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to open maildir delivery", "number", number, "err", err,
			)
			os.Exit(8)
		}

		if err := delivery.Write(buf.Bytes()); err != nil {
			_ = delivery.Abort()
			level.Error(logger).Log(
				"msg", "failed to write message into maildir", "number", number, "err", err,
			)
			os.Exit(8)
		}

		key, err := delivery.Close()
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to finish maildir delivery", "number", number, "err", err,
			)
			os.Exit(8)
		}

		metrics.Fetcher.Fetched.Add(1)
		if conf.Maildir.DeleteAfterFetch {
			metrics.Fetcher.Deleted.Add(1)
		}

		level.Debug(logger).Log(
			"msg", "delivered message into maildir", "number", number, "key", key,
		)
	}

	if err := svc.Quit(); err != nil {
		level.Warn(logger).Log(
			"msg", "failed to end the session cleanly", "err", err,
		)
	}

	level.Info(logger).Log(
		"msg", "done fetching mailbox", "messages", len(numbers),
	)
}
