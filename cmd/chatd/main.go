// Command chatd runs the parley chatroom daemon. It loads configuration,
// initializes logging, registers the chat service, and serves until a
// termination signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolk/parley/internal/chat"
	"github.com/avolk/parley/internal/config"
	"github.com/avolk/parley/internal/logging"
	"github.com/avolk/parley/server"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	listenAddr string
	initConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "chatd",
	Short: "Line-oriented chatroom daemon built on parley",
	Long: `chatd serves a plain-text chatroom over TCP. Clients connect with any
line-oriented client (telnet, nc) and talk through registered commands.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to config file (default: search paths)")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Override the configured listen address")
	rootCmd.Flags().BoolVar(&initConfig, "init-config", false, "Write a default chatd.yaml and exit")
}

func run(cmd *cobra.Command, args []string) error {
	if initConfig {
		path := cfgPath
		if path == "" {
			path = "chatd.yaml"
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	log, err := logging.Init(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	srv := server.New(cfg.Listen, log)
	for _, host := range cfg.Banned {
		srv.Dir.Ban(host)
	}
	chat.New(srv, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Infow("termination signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	log.Infow("chatd starting", "listen", cfg.Listen)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Infow("shutdown complete")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
