package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rosterload/config"
	"rosterload/storage"
	"rosterload/web"
)

var (
	servePort      int
	serveHost      string
	serveDBPath    string
	serveMode      string
	servePrimary   string
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import wizard as a local JSON API",
	Long: `Start a local HTTP server that drives the upload, preview, mapping and complete
steps one request at a time. It serves a single operator and binds to localhost.

Endpoints:
  GET  /api/state                 current step, preview, mapping, verdict, result, notices
  GET  /api/fields                student field catalog and primary key candidates
  POST /api/upload                multipart form with a "file" field (.xlsx/.xls)
  POST /api/confirm               preview -> mapping
  PUT  /api/mapping               {"header": "...", "field": "..."} (empty field unmaps)
  PUT  /api/operation             {"mode": "insert|upsert", "primaryKey": "..."}
  POST /api/submit                one bulk request to the admin API
  POST /api/back                  mapping -> preview -> upload
  POST /api/reset                 complete -> upload
  GET  /api/results.csv|.json|.xlsx  download the per-row results`,
	Example: `
  # Start on the default port
  rosterload serve

  # Custom port, upsert on USN by default
  rosterload serve --port 9090 --mode upsert --primary-key usn
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		operation, err := resolveOperation(cfg.Import, serveMode, servePrimary)
		if err != nil {
			return err
		}
		client, err := newAdminClient(cfg, "rosterload-serve/1.0")
		if err != nil {
			return err
		}

		serverCfg := web.Config{
			Client:        client,
			Operation:     operation,
			SubmitTimeout: submitTimeout(cfg.API.Timeout),
			Logger:        slog.Default(),
		}
		if !serveNoHistory {
			store, err := storage.OpenSQLite(resolveDBPath(serveDBPath))
			if err != nil {
				return err
			}
			defer store.Close()
			serverCfg.Recorder = store
		}

		handler, err := web.NewServer(serverCfg)
		if err != nil {
			return err
		}

		addr := net.JoinHostPort(serveHost, strconv.Itoa(servePort))
		server := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()
		fmt.Printf("Listening on http://%s\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port for the local server")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Interface to bind")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to the run history database (default from storage.db)")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "Initial write mode: insert|upsert (default from import.mode)")
	serveCmd.Flags().StringVar(&servePrimary, "primary-key", "", "Initial upsert key (default from import.primary_key)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not record runs in the history database")
}
