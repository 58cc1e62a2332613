package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/logging"
	"github.com/joeblew999/geo-map/internal/mapconfig"
	"github.com/joeblew999/geo-map/internal/server"
)

// Options defines all CLI flags and env vars for the geo-map server.
// Flags: --host, --port, --data-dir, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_LOG_LEVEL, SERVICE_LOG_FORMAT
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir   string `doc:"Directory holding sources/*.geojson" default:".data"`
	LogLevel  string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `doc:"Log encoding (json or console)" default:"json"`
}

func newLogger(opts *Options) *zap.Logger {
	log, err := logging.Init(logging.Config{Level: opts.LogLevel, Format: opts.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}
	return log
}

func newServer(opts *Options, log *zap.Logger) *server.Server {
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
	}, log)
}

// printOutput writes v as indented JSON, or YAML when the --yaml flag is set.
func printOutput(cmd *cobra.Command, v any) {
	useYAML, _ := cmd.Flags().GetBool("yaml")

	var output []byte
	var err error
	if useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

func strictFlag(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("strict")
	return on
}

// analyzeFile analyzes a GeoJSON document. Strict mode decodes every
// geometry with orb first, so a malformed feature fails the run instead
// of being skipped.
func analyzeFile(data []byte, strict bool) (geostyle.Analysis, error) {
	if !strict {
		return geostyle.AnalyzeBytes(data)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return geostyle.Analysis{}, eris.Wrap(geostyle.ErrInvalidGeoJSON, err.Error())
	}
	return geostyle.AnalyzeOrb(fc), nil
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		log := newLogger(opts)
		srv := newServer(opts, log)
		addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
		httpServer := &http.Server{Addr: addr, Handler: srv}

		hooks.OnStart(func() {
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info("geo-map API server starting",
				zap.String("server", baseURL),
				zap.String("data", opts.DataDir),
				zap.String("docs", baseURL+"/docs"),
				zap.String("openapi", baseURL+"/openapi.json"),
				zap.String("metrics", baseURL+"/metrics"),
			)

			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if err := httpServer.Close(); err != nil {
				log.Warn("server close", zap.Error(err))
			}
			_ = srv.Close()
			_ = log.Sync()
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "Headless map component server"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts, zap.NewNop())
			printOutput(cmd, srv.OpenAPI())
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// resolve subcommand: resolve a map configuration offline
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a map configuration from an attributes file, GEOMAP_* env vars, and a page URL",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			log := newLogger(opts)
			path, _ := cmd.Flags().GetString("attrs")
			pageURL, _ := cmd.Flags().GetString("url")

			attrs, err := mapconfig.LoadAttributes(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading attributes: %v\n", err)
				os.Exit(1)
			}
			snap, err := mapconfig.ResolveURL(attrs, pageURL)
			if err != nil {
				log.Error("resolve failed", zap.String("kind", mapconfig.ErrorKind(err)), zap.Error(err))
				fmt.Fprintf(os.Stderr, "Error resolving configuration: %v\n", err)
				os.Exit(1)
			}
			printOutput(cmd, snap)
		}),
	}
	resolveCmd.Flags().StringP("attrs", "a", "", "Attributes file (yaml, json, or toml)")
	resolveCmd.Flags().StringP("url", "u", "", "Page URL or query string with overrides")
	resolveCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(resolveCmd)

	// style subcommand: print the default style document for a GeoJSON file
	styleCmd := &cobra.Command{
		Use:   "style <file.geojson>",
		Short: "Print a style document with default layers for a GeoJSON file",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
				os.Exit(1)
			}
			a, err := analyzeFile(data, strictFlag(cmd))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", args[0], err)
				os.Exit(1)
			}
			name, _ := cmd.Flags().GetString("name")
			printOutput(cmd, geostyle.NewStyle(name, geostyle.Synthesize(a), data))
		}),
	}
	styleCmd.Flags().StringP("name", "n", "geo-map", "Style name")
	styleCmd.Flags().Bool("strict", false, "Reject features whose geometry does not decode")
	styleCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(styleCmd)

	cli.Run()
}
