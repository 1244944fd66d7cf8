package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shapecast/shapecast/internal/eventbus"
	"github.com/shapecast/shapecast/internal/events"
	"github.com/shapecast/shapecast/internal/logging"
	"github.com/shapecast/shapecast/internal/manifest"
	"github.com/shapecast/shapecast/internal/metrics"
	"github.com/shapecast/shapecast/internal/otel"
	"github.com/shapecast/shapecast/internal/project"
	"github.com/shapecast/shapecast/internal/protoemit"
	"github.com/shapecast/shapecast/internal/selection"
	"github.com/shapecast/shapecast/internal/server"
	"github.com/shapecast/shapecast/internal/shape"
)

const rootUsage = `shapecast — selection-driven projection & type-inference engine

USAGE:
  shapecast <command> [flags]

COMMANDS:
  serve            Run the HTTP projection API over a manifest directory
  check            Build the manifests and report violations
  emit-ts          Print the TypeScript type for a selection
  emit-proto       Generate .proto wire contracts from the manifests
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -manifest.root <dir>        Manifest root directory (default: .)
  -manifest.watch <bool>      Rebuild on manifest changes (default: true)
  -server.addr <addr>         HTTP listen address (default: :8080)
  -server.pretty              Pretty-print JSON responses
  -server.timeout <duration>  Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>    Max request body size (default: 1048576)
  -server.max-depth <n>       Max selection depth (default: 64)
  -server.cors-origin <o>     Allowed CORS origin. Repeatable
  -log.level <level>          zerolog level: debug|info|warn|error (default: info)
  -otel.endpoint <addr>       OTLP collector endpoint
  -otel.service <name>        OpenTelemetry service name (default: shapecast)
  -config <file>              YAML config file; flags override its values
`

const checkUsage = `check FLAGS:
  -manifest.root <dir>  Manifest root directory (default: .)
  (Exits non-zero and prints every violation when the build fails)
`

const emitTSUsage = `emit-ts FLAGS:
  -manifest.root <dir>  Manifest root directory (default: .)
  -entity <name>        Base entity (required)
  -query <shorthand>    Selection shorthand, e.g. '{ id author { name } }' (required)
  -name <TypeName>      Emitted type name (default: the entity name)
`

const emitProtoUsage = `emit-proto FLAGS:
  -manifest.root <dir>  Manifest root directory (default: .)
  -package <name>       Proto package name (required)
  -out <dir>            Output directory for generated .proto files (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("shapecast", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "emit-ts":
		return cmdEmitTS(cmdArgs)
	case "emit-proto":
		return cmdEmitProto(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "check":
		fmt.Print(checkUsage)
	case "emit-ts":
		fmt.Print(emitTSUsage)
	case "emit-proto":
		fmt.Print(emitProtoUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdServe(args []string) error {
	cfg := defaultConfig()
	configFile := ""
	timeout := time.Duration(cfg.Server.Timeout)
	var corsOrigins stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configFile, "config", configFile, "YAML config file")
	fs.StringVar(&cfg.Manifest.Root, "manifest.root", cfg.Manifest.Root, "Manifest root directory")
	fs.BoolVar(&cfg.Manifest.Watch, "manifest.watch", cfg.Manifest.Watch, "Rebuild on manifest changes")
	fs.StringVar(&cfg.Server.Addr, "server.addr", cfg.Server.Addr, "HTTP listen address")
	fs.BoolVar(&cfg.Server.Pretty, "server.pretty", cfg.Server.Pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&cfg.Server.MaxBodyBytes, "server.max-body", cfg.Server.MaxBodyBytes, "Max request body size")
	fs.IntVar(&cfg.Server.MaxDepth, "server.max-depth", cfg.Server.MaxDepth, "Max selection depth")
	fs.Var(&corsOrigins, "server.cors-origin", "Allowed CORS origin")
	fs.StringVar(&cfg.Log.Level, "log.level", cfg.Log.Level, "zerolog level")
	fs.StringVar(&cfg.Otel.Endpoint, "otel.endpoint", cfg.Otel.Endpoint, "OTLP collector endpoint")
	fs.StringVar(&cfg.Otel.Service, "otel.service", cfg.Otel.Service, "OpenTelemetry service name")

	// First parse pass decides the config file; the second lets flags
	// override its values.
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if configFile != "" {
		loaded, err := loadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		timeout = time.Duration(cfg.Server.Timeout)
		if err := fs.Parse(args); err != nil {
			fmt.Fprint(os.Stderr, serveUsage)
			return err
		}
	}
	cfg.Server.Timeout = duration(timeout)
	if len(corsOrigins) > 0 {
		cfg.Server.CORSOrigins = corsOrigins
	}

	ctx := context.Background()

	disc, err := manifest.NewFileSystemDiscovery(cfg.Manifest.Root)
	if err != nil {
		return fmt.Errorf("manifest root: %w", err)
	}
	graph, err := manifest.Build(ctx, disc)
	if err != nil {
		return fmt.Errorf("build manifests: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	eventbus.Use(eventbus.New())
	logging.Attach(zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger())
	metrics.Attach(prometheus.DefaultRegisterer)
	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var current atomic.Pointer[manifest.Graph]
	current.Store(graph)

	if cfg.Manifest.Watch {
		go func() {
			err := manifest.Watch(ctx, cfg.Manifest.Root, func(g *manifest.Graph, err error) {
				ev := events.SchemaReload{Err: err}
				if err == nil {
					current.Store(g)
					ev.Entities = g.Registry.Len()
					ev.Actions = len(g.Actions)
				}
				eventbus.Publish(ctx, ev)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("manifest watch stopped: %v", err)
			}
		}()
	}

	sopts := []server.Option{
		server.WithTimeout(time.Duration(cfg.Server.Timeout)),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithMaxDepth(cfg.Server.MaxDepth),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	h := server.New(current.Load, sopts...)

	mux := http.NewServeMux()
	mux.Handle("/", h.Router())
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("shapecast listening on %s (%d entities, %d actions)",
		cfg.Server.Addr, graph.Registry.Len(), len(graph.Actions))
	return http.ListenAndServe(cfg.Server.Addr, mux)
}

func cmdCheck(args []string) error {
	rootDir := "."
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&rootDir, "manifest.root", rootDir, "Manifest root directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}

	graph, err := buildGraph(rootDir)
	if err != nil {
		var verr manifest.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprint(os.Stderr, verr.Error())
			os.Exit(1)
		}
		return err
	}
	fmt.Printf("ok: %d entities, %d actions\n", graph.Registry.Len(), len(graph.Actions))
	return nil
}

func cmdEmitTS(args []string) error {
	rootDir := "."
	entityName := ""
	query := ""
	typeName := ""
	fs := flag.NewFlagSet("emit-ts", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&rootDir, "manifest.root", rootDir, "Manifest root directory")
	fs.StringVar(&entityName, "entity", entityName, "Base entity")
	fs.StringVar(&query, "query", query, "Selection shorthand")
	fs.StringVar(&typeName, "name", typeName, "Emitted type name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, emitTSUsage)
		return err
	}
	if entityName == "" || query == "" {
		fmt.Fprint(os.Stderr, emitTSUsage)
		return fmt.Errorf("-entity and -query are required")
	}
	if typeName == "" {
		typeName = entityName
	}

	graph, err := buildGraph(rootDir)
	if err != nil {
		return err
	}
	ent, ok := graph.Registry.Lookup(entityName)
	if !ok {
		return fmt.Errorf("unknown entity %q", entityName)
	}
	sel, err := selection.ParseShorthand(query)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}
	proj := &project.Projector{Registry: graph.Registry}
	s, verr := proj.DescribeProjection(ent, sel)
	if verr != nil {
		return verr
	}
	fmt.Print(shape.RenderTS(typeName, s))
	return nil
}

func cmdEmitProto(args []string) error {
	rootDir := "."
	pkg := ""
	outDir := ""
	fs := flag.NewFlagSet("emit-proto", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&rootDir, "manifest.root", rootDir, "Manifest root directory")
	fs.StringVar(&pkg, "package", pkg, "Proto package name")
	fs.StringVar(&outDir, "out", outDir, "Output directory for generated .proto files")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, emitProtoUsage)
		return err
	}
	if pkg == "" || outDir == "" {
		fmt.Fprint(os.Stderr, emitProtoUsage)
		return fmt.Errorf("-package and -out are required")
	}

	graph, err := buildGraph(rootDir)
	if err != nil {
		return err
	}
	fd, err := protoemit.Build(graph.Registry, pkg)
	if err != nil {
		return fmt.Errorf("build descriptors: %w", err)
	}
	return protoemit.Render(fd, outDir)
}

func buildGraph(rootDir string) (*manifest.Graph, error) {
	disc, err := manifest.NewFileSystemDiscovery(rootDir)
	if err != nil {
		return nil, fmt.Errorf("manifest root: %w", err)
	}
	return manifest.Build(context.Background(), disc)
}
