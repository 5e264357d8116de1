package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/aevon-lab/envelope/internal/config"
	"github.com/aevon-lab/envelope/internal/convert"
	"github.com/aevon-lab/envelope/internal/event"
	"github.com/aevon-lab/envelope/internal/fixture"
	"github.com/aevon-lab/envelope/internal/interop/sdk"
	"github.com/aevon-lab/envelope/internal/validation"
	"github.com/aevon-lab/envelope/internal/validation/rules"
	"github.com/aevon-lab/envelope/internal/validation/rules/formats/protobuf"
	"github.com/aevon-lab/envelope/internal/validation/rules/formats/yaml"
	rulesStorage "github.com/aevon-lab/envelope/internal/validation/rules/storage"
	"golang.org/x/sync/errgroup"
)

// errFailed marks a run in which at least one fixture was refused. The
// individual failures have already been logged.
var errFailed = errors.New("one or more events failed")

type options struct {
	configPath string
	convertTo  string
	validator  string
	files      []string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.convertTo, "convert", "", "Convert every event to this specversion (0.3 or 1.0)")
	flag.StringVar(&opts.validator, "validator", "", "Override header.validator.class")
	flag.Parse()
	opts.files = flag.Args()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFailed) {
			slog.Error("Run failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, logOut io.Writer) error {
	if len(opts.files) == 0 {
		return fmt.Errorf("no fixture files given")
	}

	// 1. Load Configuration
	live, err := config.NewLive(opts.configPath)
	if err != nil {
		return err
	}
	if opts.validator != "" {
		if err := live.Set(validation.ClassKey, opts.validator); err != nil {
			return err
		}
	}
	cfg, err := live.Config()
	if err != nil {
		return err
	}

	// 2. Initialize Logger
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)
	slog.Debug("Loaded config", "config", cfg)

	var target event.SpecVersion
	if opts.convertTo != "" {
		if target, err = event.ParseSpecVersion(opts.convertTo); err != nil {
			return err
		}
	}

	// 3. Initialize Validator Registry
	registry := validation.NewRegistry()
	validation.RegisterBuiltins(registry)

	compilers := rules.NewCompilerRegistry()
	compilers.RegisterFormat(rules.FormatYaml, yaml.NewCompiler())
	compilers.RegisterFormat(rules.FormatProtobuf, protobuf.NewCompiler())

	sets, err := rulesStorage.Load(ctx, rulesStorage.NewFileSystemRepository(cfg.Validation.RulesDir), compilers, registry)
	if err != nil {
		return err
	}
	if cfg.Validation.RequireRules && len(sets) == 0 {
		return fmt.Errorf("no rule files found in %s", cfg.Validation.RulesDir)
	}
	slog.Info("Validators registered",
		"validators", registry.Names(),
		"rules_dir", cfg.Validation.RulesDir,
		"active", live.ValidatorClass())

	// 4. Initialize Factory
	factory := event.NewFactory(event.WithValidatorSource(validation.NewResolver(registry, live.ValidatorClass)))
	converter := convert.New(factory)

	// 5. Read Fixtures
	var fixtures []*fixture.Fixture
	for _, path := range opts.files {
		loaded, err := fixture.LoadFile(path)
		if err != nil {
			return err
		}
		fixtures = append(fixtures, loaded...)
	}

	// 6. Build concurrently, print in input order
	outputs := make([][]byte, len(fixtures))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.CLI.Workers)
	for i, fx := range fixtures {
		i, fx := i, fx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := process(factory, converter, fx, target)
			if err != nil {
				failed.Add(1)
				slog.Error("Event refused", "fixture", fx.Origin, "error", err)
				return nil
			}
			outputs[i] = out
			slog.Debug("Event accepted", "fixture", fx.Origin)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, out := range outputs {
		if out == nil {
			continue
		}
		if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
			return err
		}
	}

	slog.Info("Run complete", "events", len(fixtures), "failed", failed.Load())
	if failed.Load() > 0 {
		return errFailed
	}
	return nil
}

// process builds one fixture, converts it when target is set and encodes
// the result as structured-mode JSON.
func process(factory *event.Factory, converter *convert.Converter, fx *fixture.Fixture, target event.SpecVersion) ([]byte, error) {
	b, err := fx.Builder(factory)
	if err != nil {
		return nil, err
	}
	e, err := b.Build()
	if err != nil {
		return nil, err
	}
	if target != "" && target != e.SpecVersion() {
		if e, err = converter.Convert(target, e); err != nil {
			return nil, err
		}
	}

	ce, err := sdk.ToSDK(e)
	if err != nil {
		return nil, err
	}
	return ce.MarshalJSON()
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
