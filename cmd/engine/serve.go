package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"atsscout-engine/internal/config"
	"atsscout-engine/internal/httpapi"
	"atsscout-engine/internal/poll"
	"atsscout-engine/internal/store"
)

var (
	serveHost    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and re-run configured watches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		lock, err := store.LockDataDir(resolveDataDir())
		if err != nil {
			return err
		}
		defer func() { _ = lock.Unlock() }()

		e, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		cfg := e.cfgVal.Load().(config.Config)
		runStatus := &atomic.Value{}
		runStatus.Store(httpapi.RunStatus{})

		deps := httpapi.Deps{
			DB:          e.db.Pool,
			Hub:         e.hub,
			Runner:      e.driver,
			Debug:       e.db.DebugPages(),
			CfgVal:      e.cfgVal,
			RunStatus:   runStatus,
			UserCfgPath: e.cfgPath,
			LoadCfg:     func() (config.Config, error) { return config.Load(e.cfgPath) },
			Logger:      logger,
		}
		if cfg.Output.Driver == config.OutputSQLite {
			deps.Postings = e.db.Postings()
		}
		mux := httpapi.NewMux(deps)

		srv := &http.Server{
			Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover(logger), httpapi.AccessLog(logger), httpapi.Cors),
			ReadHeaderTimeout: 5 * time.Second,
		}

		token, err := randomToken(16)
		if err != nil {
			return err
		}
		if v := os.Getenv("ATSSCOUT_SHUTDOWN_TOKEN"); v != "" {
			token = v
		} else {
			// The desktop shell reads this line to stop the sidecar.
			fmt.Fprintf(cmd.OutOrStdout(), "shutdown_token=%s\n", token)
		}
		mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

		addr := net.JoinHostPort(serveHost, strconv.Itoa(cfg.App.Port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		logger.Info("engine listening", zap.String("addr", "http://"+addr), zap.String("data_dir", e.dataDir))

		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			if !serveNoWatch {
				poll.Start(ctx, e.cfgVal, e.driver, poll.Options{Logger: logger, Timeout: 30 * time.Minute})
			}
		}()

		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()

		serveErr := srv.Serve(ln)
		stop()
		<-watchDone
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		logger.Info("engine stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Interface to bind")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not re-run configured watches")
}
