package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/NamanBalaji/mtdl/internal/common"
	httpProto "github.com/NamanBalaji/mtdl/internal/protocol/http"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	appName        = "mtdl"
	configFileName = "mtdl"

	RendererAuto     = "auto"
	RendererTerminal = "terminal"
	RendererLog      = "log"
)

// Config holds the options of a single run. Values come from the YAML file at
// $XDG_CONFIG_HOME/mtdl, then the command line.
type Config struct {
	URL     string `yaml:"-"`
	Output  string `yaml:"-"`
	History bool   `yaml:"-"` // List recorded runs instead of downloading

	Workers   int               `yaml:"threads,omitempty"`
	Timeout   time.Duration     `yaml:"timeout,omitempty"`
	Buffer    ByteSize          `yaml:"buffer,omitempty"`
	Limit     ByteSize          `yaml:"limit,omitempty"`
	TempDir   string            `yaml:"tempDir,omitempty"`
	StateDir  string            `yaml:"stateDir,omitempty"`
	Renderer  string            `yaml:"renderer,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Debug     bool              `yaml:"debug,omitempty"`
	NoHistory bool              `yaml:"noHistory,omitempty"`
}

// DefaultConfig returns the options used when neither the file nor the flags set them.
func DefaultConfig() Config {
	return Config{
		Workers:  common.DefaultWorkers,
		Timeout:  common.DefaultTimeout,
		Buffer:   common.DefaultBufferSize,
		StateDir: filepath.Join(xdg.StateHome, appName),
		Renderer: RendererAuto,
	}
}

// GetConfig reads the configuration file, applies the command line args on
// top of it and validates the result. A missing file is not an error.
func GetConfig(args []string) (*Config, error) {
	configFilePath := filepath.Join(xdg.ConfigHome, configFileName)
	defaults := DefaultConfig()

	var cfg Config

	b, err := os.ReadFile(configFilePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, configFilePath, err)
		}
	}

	conf := Config{
		Workers:   zeroOr(cfg.Workers, defaults.Workers),
		Timeout:   zeroOr(cfg.Timeout, defaults.Timeout),
		Buffer:    zeroOr(cfg.Buffer, defaults.Buffer),
		Limit:     zeroOr(cfg.Limit, defaults.Limit),
		TempDir:   zeroOr(cfg.TempDir, defaults.TempDir),
		StateDir:  zeroOr(cfg.StateDir, defaults.StateDir),
		Renderer:  zeroOr(cfg.Renderer, defaults.Renderer),
		Headers:   cfg.Headers,
		Debug:     cfg.Debug,
		NoHistory: cfg.NoHistory,
	}

	if err := conf.applyFlags(args); err != nil {
		return nil, err
	}

	if conf.History {
		return &conf, nil
	}

	if conf.URL == "" {
		return nil, fmt.Errorf("%w: a URL is required", ErrInvalidConfig)
	}

	if conf.Output == "" {
		name, err := FilenameFromURL(conf.URL)
		if err != nil {
			return nil, err
		}
		conf.Output = name
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}

// newFlagSet binds the command line flags to c. Short aliases share the
// destination of their long flag.
func (c *Config) newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.URL, "url", c.URL, "URL of the file to download")
	fs.StringVar(&c.URL, "u", c.URL, "shorthand for -url")
	fs.IntVar(&c.Workers, "thread", c.Workers, "number of parallel range requests")
	fs.IntVar(&c.Workers, "t", c.Workers, "shorthand for -thread")
	fs.StringVar(&c.Output, "output", c.Output, "output path (default: last segment of the URL path)")
	fs.StringVar(&c.Output, "o", c.Output, "shorthand for -output")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "timeout of a single request, body included")
	fs.Var(&c.Buffer, "buffer", "copy buffer per worker, e.g. 8KiB")
	fs.Var(&c.Limit, "limit", "bandwidth limit shared by all workers, e.g. 2MiB (0 disables)")
	fs.StringVar(&c.TempDir, "tempdir", c.TempDir, "parent directory of the scratch directory")
	fs.StringVar(&c.Renderer, "renderer", c.Renderer, "progress display: auto, terminal or log")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging")
	fs.BoolVar(&c.History, "history", c.History, "print the recorded runs and exit")
	fs.BoolVar(&c.NoHistory, "no-history", c.NoHistory, "do not record this run")

	return fs
}

// applyFlags parses args on top of c. The first positional argument is taken
// as the URL when -url is not given; flags may follow it.
func (c *Config) applyFlags(args []string) error {
	fs := c.newFlagSet()

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

		if fs.NArg() == 0 {
			break
		}

		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch {
	case len(positional) > 1:
		return fmt.Errorf("%w: unexpected arguments %q", ErrInvalidConfig, positional[1:])
	case len(positional) == 1 && c.URL != "":
		return fmt.Errorf("%w: URL given twice", ErrInvalidConfig)
	case len(positional) == 1:
		c.URL = positional[0]
	}

	return nil
}

// Usage writes the flag documentation to w.
func Usage(w io.Writer) {
	c := DefaultConfig()
	fs := c.newFlagSet()
	fs.SetOutput(w)

	fmt.Fprintf(w, "Usage: %s [flags] <url>\n\n", appName)
	fs.PrintDefaults()
}

func (c *Config) validate() error {
	if !httpProto.Supports(c.URL) {
		return fmt.Errorf("%w: an absolute http or https URL is required, got %q", ErrInvalidConfig, c.URL)
	}

	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: thread count must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.Buffer <= 0:
		return fmt.Errorf("%w: buffer must be positive", ErrInvalidConfig)
	case c.Buffer > math.MaxInt32:
		return fmt.Errorf("%w: buffer must not exceed %s", ErrInvalidConfig, humanize.IBytes(math.MaxInt32))
	case c.Limit < 0:
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidConfig)
	}

	switch c.Renderer {
	case RendererAuto, RendererTerminal, RendererLog:
	default:
		return fmt.Errorf("%w: unknown renderer %q", ErrInvalidConfig, c.Renderer)
	}

	return nil
}

// LogPath is where the log file of a run is written.
func (c *Config) LogPath() string {
	return filepath.Join(c.StateDir, appName+".log")
}

// HistoryPath is the location of the run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.db")
}

// Download returns the per-run options of the downloader.
func (c *Config) Download() *common.Config {
	return &common.Config{
		Workers:       c.Workers,
		Timeout:       c.Timeout,
		BufferSize:    int(c.Buffer),
		TempDir:       c.TempDir,
		Headers:       c.Headers,
		ThrottleSpeed: int64(c.Limit),
	}
}
