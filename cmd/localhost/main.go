// Command localhost runs the HTTP/1.1 reactor server against a textual
// configuration file, per spec §6. CLI shape grounded on docker-compose's
// ecs plugin cmd/main.go (a single cobra root command, RunE doing the
// real work), trimmed to this server's single positional argument.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/conn"
	"github.com/mohalnassery/localhost/internal/dispatch"
	"github.com/mohalnassery/localhost/internal/logging"
	"github.com/mohalnassery/localhost/internal/router"
	"github.com/mohalnassery/localhost/internal/server"
	"github.com/mohalnassery/localhost/internal/sockio"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/server.conf"

func main() {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "localhost [config-path]",
		Short: "A single-threaded, non-blocking HTTP/1.1 server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return run(path, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, verbose bool) error {
	log := logging.New(verbose)

	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("opening config %s: %w", configPath, err)
	}
	defer f.Close()

	cfg, err := config.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", configPath, err)
	}

	listeners, err := bindAll(cfg)
	if err != nil {
		return err
	}

	d := dispatch.New(router.New(cfg.Bindings), log)
	srv, err := server.New(listeners, d, conn.DefaultMaxConnections, conn.DefaultIdleTimeout, conn.DefaultKeepAliveTimeout, log)
	if err != nil {
		return fmt.Errorf("starting reactor: %w", err)
	}
	defer srv.Close()

	for _, l := range listeners {
		log.Infof("listening on %s:%d", l.Host, l.Port)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		srv.Stop()
	}()

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server loop: %w", err)
	}
	return nil
}

func bindAll(cfg *config.Config) ([]*sockio.Listener, error) {
	var listeners []*sockio.Listener
	for _, b := range cfg.Bindings {
		for _, port := range b.Ports {
			l, err := sockio.Listen(b.Host, port)
			if err != nil {
				for _, opened := range listeners {
					opened.Close()
				}
				return nil, fmt.Errorf("binding %s:%d: %w", b.Host, port, err)
			}
			listeners = append(listeners, l)
		}
	}
	if len(listeners) == 0 {
		return nil, fmt.Errorf("no listening sockets configured")
	}
	return listeners, nil
}
