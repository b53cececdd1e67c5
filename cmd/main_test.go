package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"loan-engine/internal/config"
	"loan-engine/internal/infrastructure/logging"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJob struct{}

func (noopJob) Name() string                  { return "Noop" }
func (noopJob) Run(ctx context.Context) error { return nil }

var quietLogging = config.LoggerConfig{Level: "error", Encoding: "json"}

func TestStartServer(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
	}
	logger := logging.NewLogger(quietLogging)

	srv, serverErrors, shutdownChan := startServer(cfg, http.NewServeMux(), logger)
	require.NotNil(t, srv)
	assert.NotNil(t, serverErrors)
	assert.NotNil(t, shutdownChan)

	shutdownHTTPServer(srv, serverErrors, logger)
}

func TestHandleShutdown(t *testing.T) {
	logger := logging.NewLogger(quietLogging)
	cronScheduler := cron.New()
	cronScheduler.Start()
	srv := &http.Server{}

	shutdownChan := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)
	shutdownChan <- syscall.SIGINT
	serverErrors <- nil

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, cronScheduler, nil, nil, nil, shutdownChan, serverErrors, logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}

func TestHandleShutdownDrainsHTTPBeforeClosingRedis(t *testing.T) {
	logger := logging.NewLogger(quietLogging)
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})

	started := make(chan struct{})
	draining := make(chan struct{})
	redisErr := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-draining
		redisErr <- redisClient.Ping(context.Background()).Err()
		w.WriteHeader(http.StatusOK)
	})}
	srv.RegisterOnShutdown(func() { close(draining) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
			return
		}
		serverErrors <- nil
	}()

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-started

	shutdownChan := make(chan os.Signal, 1)
	shutdownChan <- syscall.SIGTERM
	handleShutdown(srv, nil, nil, nil, redisClient, shutdownChan, serverErrors, logger)

	select {
	case err := <-redisErr:
		assert.NotErrorIs(t, err, redis.ErrClosed, "in-flight request saw a closed Redis client")
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request did not finish")
	}
	assert.ErrorIs(t, redisClient.Ping(context.Background()).Err(), redis.ErrClosed)
}

func TestStartBatchJobs(t *testing.T) {
	logger := logging.NewLogger(quietLogging)

	c := startBatchJobs(&config.Config{}, logger, noopJob{})
	defer c.Stop()

	require.Len(t, c.Entries(), 1)
}

func TestSetupRabbitMQRejectsIncompleteCredentials(t *testing.T) {
	logger := logging.NewLogger(quietLogging)

	_, err := setupRabbitMQ(&config.Config{RabbitMQ: config.RabbitMQConfig{Host: "mq", Username: "only-user"}}, logger)
	assert.Error(t, err)
}
