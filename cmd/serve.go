package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	cfgpkg "github.com/KaramelBytes/salesdash/internal/config"
	"github.com/KaramelBytes/salesdash/internal/render"
	"github.com/KaramelBytes/salesdash/internal/server"
	"github.com/spf13/cobra"
)

var (
	srvAddr        string
	srvMaxUploadMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard analysis over HTTP",
	Long: `Serve starts the HTTP API:

  GET  /api/health
  POST /api/columns        multipart "file"
  POST /api/analyze        multipart "file" plus mode, product..month, top_n, format=json|markdown|xlsx
  POST /api/charts/{name}  top_products | category_sales | region_sales | monthly_sales (PNG)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cp := *currentConfig()
		c := &cp
		if cmd.Flags().Changed("addr") {
			c.ServerAddr = srvAddr
		}
		if cmd.Flags().Changed("max-upload-mb") {
			c.MaxUploadMB = srvMaxUploadMB
		}
		opt, err := serverOptions(c)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on http://%s\n", c.ServerAddr)
		return server.Run(ctx, c.ServerAddr, server.NewRouter(opt))
	},
}

// serverOptions translates configuration into server defaults.
func serverOptions(c *cfgpkg.Global) (server.Options, error) {
	opt := server.DefaultOptions()
	in, err := ingestOptions(c)
	if err != nil {
		return opt, err
	}
	opt.Ingest = in
	opt.Fixed = c.Mode == cfgpkg.ModeFixed
	opt.Analysis = analysis.Options{TopN: c.TopN, DescribeAll: c.DescribeAll, PreviewRows: c.PreviewRows}
	if c.PreviewRows == 0 {
		opt.Analysis.PreviewRows = -1
	}
	m, err := analysis.ParseMapping(c.MappingEntries())
	if err != nil {
		return opt, fmt.Errorf("config mapping: %w", err)
	}
	opt.Mapping = m
	opt.Chart = render.ChartOptions{Width: c.ChartWidth, Height: c.ChartHeight}
	if c.MaxUploadMB > 0 {
		opt.MaxUploadBytes = int64(c.MaxUploadMB) << 20
	}
	return opt, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().IntVar(&srvMaxUploadMB, "max-upload-mb", 0, "maximum upload size in MiB (default from config)")
}
