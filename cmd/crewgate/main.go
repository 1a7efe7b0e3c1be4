// Crewgate: a protocol gateway that lets autonomous agents discover and
// invoke capabilities — expert personas, multi-step workflows, project
// backlogs — through a single JSON-RPC interface.
//
// The capability catalog is not fixed at compile time: it is derived on
// every request from the specification documents held by the external
// store, so agents always see the current persona, workflow, and
// project set.
//
// Usage:
//
//	crewgate serve      # Start the gateway (HTTP JSON-RPC)
//	crewgate devstore   # Start a local specification store for development
//	crewgate version    # Print the version
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/crewgate/internal/config"
	"github.com/HendryAvila/crewgate/internal/devstore"
	"github.com/HendryAvila/crewgate/internal/gateway"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crewgate",
		Short:         "Persona and workflow capability gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newDevstoreCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway (HTTP JSON-RPC on a single endpoint)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadGateway(cmd.Flags())
			if err != nil {
				return err
			}

			client := specstore.New(cfg.StoreURL, specstore.WithTimeout(cfg.StoreTimeout))
			dispatcher := gateway.NewDispatcher(client)

			log.Printf("crewgate v%s listening on %s (store: %s)",
				gateway.Version, cfg.Listen, cfg.StoreURL)
			return serveHTTP(cfg.Listen, gateway.NewRouter(dispatcher))
		},
	}

	cmd.Flags().String("listen", ":8700", "address to listen on")
	cmd.Flags().String("store-url", "http://localhost:8701", "specification store base URL")
	cmd.Flags().Duration("store-timeout", 15*time.Second, "per-request store timeout")
	return cmd
}

func newDevstoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devstore",
		Short: "Start a local SQLite-backed specification store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDevstore(cmd.Flags())
			if err != nil {
				return err
			}

			store, err := devstore.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					log.Printf("WARNING: devstore close: %v", err)
				}
			}()

			if cfg.Seed != "" {
				if err := store.Seed(cfg.Seed); err != nil {
					return err
				}
				log.Printf("devstore seeded from %s", cfg.Seed)
			}

			log.Printf("devstore listening on %s (db: %s)", cfg.Listen, cfg.DB)
			return serveHTTP(cfg.Listen, devstore.NewRouter(store, cfg.Token))
		},
	}

	cmd.Flags().String("listen", ":8701", "address to listen on")
	cmd.Flags().String("db", "", "path to the SQLite database (default ~/.crewgate/devstore.db)")
	cmd.Flags().String("seed", "", "JSON file with personas/workflows/projects to load on startup")
	cmd.Flags().String("token", "", "require this bearer token on every request")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("crewgate v%s\n", gateway.Version)
		},
	}
}

// serveHTTP runs the server until SIGINT/SIGTERM, then drains in-flight
// requests before returning.
func serveHTTP(addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
