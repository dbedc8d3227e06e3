package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	cfgpkg "github.com/KaramelBytes/salesdash/internal/config"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set salesdash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s\n", c.Mode)
		for _, r := range analysis.Roles() {
			col := c.Mapping[string(r)]
			if col == "" {
				col = "-"
			}
			fmt.Fprintf(out, "mapping.%s: %s\n", r, col)
		}
		fmt.Fprintf(out, "top_n: %d\n", c.TopN)
		fmt.Fprintf(out, "preview_rows: %d\n", c.PreviewRows)
		fmt.Fprintf(out, "describe_all: %t\n", c.DescribeAll)
		if c.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", c.Delimiter)
		}
		fmt.Fprintf(out, "decimal: %s\n", c.Decimal)
		if c.Thousands != "" {
			fmt.Fprintf(out, "thousands: %q\n", c.Thousands)
		}
		if c.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", c.SheetName)
		}
		fmt.Fprintf(out, "sheet_index: %d\n", c.SheetIndex)
		if c.OutputDir != "" {
			fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		}
		fmt.Fprintf(out, "charts: %t\n", c.Charts)
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func(lo int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	if role, ok := strings.CutPrefix(key, "mapping."); ok {
		r, err := analysis.ParseRole(role)
		if err != nil {
			return err
		}
		if c.Mapping == nil {
			c.Mapping = map[string]string{}
		}
		switch strings.ToLower(val) {
		case "", "-", "none":
			delete(c.Mapping, string(r))
		default:
			c.Mapping[string(r)] = val
		}
		return nil
	}
	switch key {
	case "mode":
		switch strings.ToLower(val) {
		case cfgpkg.ModeFixed, cfgpkg.ModeDynamic:
			c.Mode = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid mode: %s (use fixed or dynamic)", val)
		}
	case "top_n":
		c.TopN, err = atoi(1)
	case "preview_rows":
		c.PreviewRows, err = atoi(0)
	case "describe_all", "charts":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		if key == "charts" {
			c.Charts = b
		} else {
			c.DescribeAll = b
		}
	case "delimiter":
		c.Delimiter = val
	case "decimal":
		c.Decimal = val
	case "thousands":
		c.Thousands = val
	case "sheet_name":
		c.SheetName = val
	case "sheet_index":
		c.SheetIndex, err = atoi(1)
	case "output_dir":
		c.OutputDir = val
	case "chart_width":
		c.ChartWidth, err = atoi(64)
	case "chart_height":
		c.ChartHeight, err = atoi(64)
	case "server_addr":
		c.ServerAddr = val
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi(1)
	case "log_level":
		if _, lerr := logging.ParseLevel(val); lerr != nil {
			return lerr
		}
		c.LogLevel = val
	case "log_format":
		switch val {
		case "text", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
