package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/server"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configuration view over HTTP",
		Long: `Expose the view protocol and the reports over an HTTP API.

  POST /api/messages             send a view message
  GET  /api/messages             fetch queued controller messages
  GET  /api/notifications        fetch queued notifications
  GET  /api/output?offset=N      read the output channel
  GET  /api/state                run state
  POST /api/visibility           {"visible": bool}
  POST /api/refresh              rediscover platforms
  POST /api/run/cancel           stop the active run
  GET  /api/reports              list reports
  GET  /api/reports/:name/models list models of a report
  GET  /api/reports/:name/html   rendered HTML report
  POST /api/reports/:name/models/:model/choose  {"target": path}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := util.ComponentLogger("server")

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			if !verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			mailbox := server.NewMailbox()
			notifications := server.NewNotifications()
			output := server.NewOutputLog()

			ctrl, err := ws.newController(mailbox, notifications, output, true)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl.Attach(ctx)
			stopSettings := ws.watchSettings(ctx, ctrl)
			defer stopSettings()

			srv := &http.Server{
				Addr: serveAddr,
				Handler: server.New(server.Options{
					Controller:    ctrl,
					Mailbox:       mailbox,
					Notifications: notifications,
					Output:        output,
					Reports:       ws.reports,
					Store:         ws.store,
					Workspace:     ws.root,
					Log:           log,
				}).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("Serving", "addr", serveAddr, "workspace", ws.root)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8765", "Listen address")

	return serveCmd
}
