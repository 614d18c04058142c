package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stick controls over HTTP",
	Long: paragraph(fmt.Sprintf("\n%s the three stick buttons as a web page for the phone, with a JSON API, a websocket event stream and Prometheus metrics.",
		keyword("Serve"))),
	Example: paragraph("netramarg serve\nnetramarg serve --addr 0.0.0.0:8787 --mute"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		a, err := newApp(cfg, log.Default())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		ctx, cancel := signalContext()
		defer cancel()

		a.prewarm(ctx)
		a.watch(viper.GetViper())
		a.ctrl.Initialize()

		srv := server.New(a.ctrl, server.Options{
			History:     a.history,
			Metrics:     a.metrics.Handler(),
			ReadTimeout: cfg.Server.ReadTimeout,
			Logger:      log.Default(),
		})
		defer srv.Close()
		return srv.ListenAndServe(ctx, cfg.Server.Addr, func(addr net.Addr) { //nolint:wrapcheck
			fmt.Println("Listening on", keyword("http://"+addr.String()))
		})
	},
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
