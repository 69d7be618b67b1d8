package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetask-cli/internal/logging"
	"github.com/KaramelBytes/sheetask-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query interpreter over HTTP",
	Long: `Start an HTTP service:

  POST   /api/tables             upload a sheet (multipart field "file")
  GET    /api/tables/{id}        preview of an uploaded sheet
  POST   /api/tables/{id}/query  {"question": "..."}; ?format=html for HTML
  DELETE /api/tables/{id}
  GET    /healthz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config()
		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(server.Options{
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			MaxTables:      c.MaxTables,
			PreviewRows:    c.PreviewRows,
			SheetName:      c.SheetName,
			Logger:         logging.Default(),
		})
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (Ctrl+C to stop)\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config server_addr)")
}
