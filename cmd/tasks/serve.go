package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/amonks/tasklist/task"
	"github.com/amonks/tasklist/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// tasks serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task list over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: web.addr from config, else 127.0.0.1:8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Addr()
	}

	logger := log.New(os.Stderr, "tasks: ", log.LstdFlags)
	handler, err := web.NewHandler(web.Options{Store: a.store, Logger: logger})
	if err != nil {
		return err
	}
	a.store.SetObserver(task.Observers{a.observer, handler})

	server := &http.Server{
		Addr:     addr,
		Handler:  handler,
		ErrorLog: logger,
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving tasks at http://%s\n", addr)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server stopped: %v", err)
			return err
		}
		return nil
	case <-interrupts:
		logger.Printf("interrupt received, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}
