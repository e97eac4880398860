package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/isamuradli/remotedram/logging"
	"github.com/isamuradli/remotedram/remotedram"
	golog "github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start a remote_dram server",
	PreRunE: bindServeFlags,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().String("listen-addr", "0.0.0.0:8080", "Address to accept client connections on (host:port)")
	serveCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus-format metrics on this address (host:port)")
	serveCmd.Flags().Int("max-message-size", 0, "Maximum on-wire message size in bytes (0 = default 64KiB)")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warning, error")
}

func bindServeFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	logging.SetLevel(logging.ParseLevel(viper.GetString("log-level")))
	log := logging.Get("cmd/remotedram")

	cfg := remotedram.Config{
		Driver:         remotedram.DriverName,
		ListenAddr:     viper.GetString("listen-addr"),
		MaxMessageSize: viper.GetInt("max-message-size"),
	}

	driver, err := remotedram.Open(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer driver.Close()

	if addr := viper.GetString("metrics-addr"); addr != "" {
		go serveMetrics(addr, driver, log)
	}

	log.Infof("remote_dram server listening on %s", cfg.ListenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Infof("shutting down")
	return nil
}

func serveMetrics(addr string, driver *remotedram.Driver, log golog.ILogger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		driver.Metrics().WritePrometheus(w)
	})
	log.Infof("metrics endpoint listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server failed: %v", err)
	}
}
