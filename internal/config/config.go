package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Mode is "fixed" (literal Product/Category/... headers) or "dynamic" (Mapping).
	Mode    string            `mapstructure:"mode" yaml:"mode"`
	Mapping map[string]string `mapstructure:"mapping" yaml:"mapping,omitempty"`

	TopN        int  `mapstructure:"top_n" yaml:"top_n"`
	PreviewRows int  `mapstructure:"preview_rows" yaml:"preview_rows"`
	DescribeAll bool `mapstructure:"describe_all" yaml:"describe_all"`

	// Ingestion
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	Decimal    string `mapstructure:"decimal" yaml:"decimal"`
	Thousands  string `mapstructure:"thousands" yaml:"thousands"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Output
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	Charts      bool   `mapstructure:"charts" yaml:"charts"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// HTTP API
	ServerAddr  string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

var roleKeys = []string{"product", "category", "region", "price", "quantity", "month"}

const (
	ModeFixed   = "fixed"
	ModeDynamic = "dynamic"
)

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Mode:        ModeDynamic,
		Mapping:     map[string]string{},
		TopN:        5,
		PreviewRows: 5,
		DescribeAll: true,
		Decimal:     ".",
		SheetIndex:  1,
		Charts:      true,
		ChartWidth:  1024,
		ChartHeight: 512,
		ServerAddr:  "127.0.0.1:8080",
		MaxUploadMB: 32,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".salesdash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salesdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including a local .env file) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SALESDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("mode", d.Mode)
	for _, role := range roleKeys {
		v.SetDefault("mapping."+role, "")
	}
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("describe_all", d.DescribeAll)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("decimal", d.Decimal)
	v.SetDefault("thousands", d.Thousands)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("charts", d.Charts)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// a missing config file is fine; a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the rest of the program cannot interpret.
func (c *Global) Validate() error {
	switch c.Mode {
	case ModeFixed, ModeDynamic:
	default:
		return fmt.Errorf("invalid mode: %s (use fixed or dynamic)", c.Mode)
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if _, err := ParseDecimal(c.Decimal); err != nil {
		return err
	}
	if _, err := ParseThousands(c.Thousands); err != nil {
		return err
	}
	if c.TopN < 0 {
		return fmt.Errorf("invalid top_n: %d", c.TopN)
	}
	return nil
}

// MappingEntries renders the configured mapping as role=column strings, sorted by role.
func (c *Global) MappingEntries() []string {
	var out []string
	for _, role := range roleKeys {
		if col, ok := c.Mapping[role]; ok && col != "" {
			out = append(out, role+"="+col)
		}
	}
	return out
}

// ParseDelimiter maps a delimiter name to a rune; empty means sniff.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s (use ',' | ';' | 'tab')", s)
	}
}

// ParseDecimal maps a decimal separator name to a rune; "auto" means detect per value.
func ParseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ".", "dot", "":
		return '.', nil
	case ",", "comma":
		return ',', nil
	case "auto":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported decimal separator: %s (use '.'|'comma'|'auto')", s)
	}
}

// ParseThousands maps a thousands separator name to a rune; empty means none.
func ParseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return 0, nil
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case " ", "space":
		return ' ', nil
	default:
		return 0, fmt.Errorf("unsupported thousands separator: %s (use ','|'.'|'space')", s)
	}
}
