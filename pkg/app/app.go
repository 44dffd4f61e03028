// Package app wires configuration, logging, tracing and the program store
// into the blockscript command tree.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/zurustar/blockscript/pkg/cli"
	"github.com/zurustar/blockscript/pkg/compiler"
	"github.com/zurustar/blockscript/pkg/layout"
	"github.com/zurustar/blockscript/pkg/logger"
	"github.com/zurustar/blockscript/pkg/observability"
	"github.com/zurustar/blockscript/pkg/store"
	"github.com/zurustar/blockscript/pkg/vm"
	"github.com/zurustar/blockscript/pkg/world"
)

// Version is reported as the tracing service version.
const Version = "0.1.0"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	out      io.Writer
	store    store.ProgramStore
	ownStore bool
	tracing  *observability.TracerProvider
	logFile  io.Closer
	realtime bool
}

// Option configures an Application.
type Option func(*Application)

// WithStore uses st instead of opening the configured store URI.
func WithStore(st store.ProgramStore) Option {
	return func(app *Application) { app.store = st }
}

// New Applicationを作成
func New(out io.Writer, opts ...Option) *Application {
	app := &Application{out: out}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(ctx context.Context, args []string) error {
	// 1. 環境変数から設定を読み込む（フラグが優先）
	config, err := cli.Load()
	if err != nil {
		return err
	}
	app.config = config

	root := app.rootCommand()
	root.SetArgs(args)
	root.SetOut(app.out)
	defer app.close(ctx)
	return root.ExecuteContext(ctx)
}

func (app *Application) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "blockscript",
		Short:         "Compile block layouts into event programs and run them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd.Context())
		},
	}
	app.config.BindFlags(root)
	root.AddCommand(
		app.compileCommand(),
		app.showCommand(),
		app.runCommand(),
	)
	return root
}

// setup 設定の検証、ロガー・トレーシング・ストアの初期化
func (app *Application) setup(ctx context.Context) error {
	// 2. 設定の検証
	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 3. ロガーの初期化
	closer, err := logger.InitLoggerWithFile(app.config.LogLevel, app.config.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.logFile = closer
	app.log = logger.GetLogger()

	// 4. トレーシングの初期化
	tp, err := observability.InitTracing(ctx, observability.Config{
		ServiceName:    "blockscript",
		ServiceVersion: Version,
		Endpoint:       app.config.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.tracing = tp

	// 5. プログラムストアを開く
	if app.store == nil {
		st, err := store.Open(app.config.Store)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		app.store = st
		app.ownStore = true
	}

	app.log.Debug("application ready", "store", app.config.Store, "tracing", tp.IsEnabled())
	return nil
}

func (app *Application) close(ctx context.Context) {
	if app.tracing != nil {
		if err := app.tracing.Shutdown(ctx); err != nil {
			app.log.Warn("failed to shut down tracing", "error", err)
		}
	}
	if c, ok := app.store.(store.Closer); ok && app.ownStore {
		if err := c.Close(); err != nil {
			app.log.Warn("failed to close store", "error", err)
		}
	}
	if app.logFile != nil {
		app.logFile.Close()
	}
}

func (app *Application) compileCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "compile <layout.yaml|dir>",
		Short:   "Compile layout files into the program store",
		Example: "blockscript --store file:programs.yaml compile layouts/",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadLayouts(args[0])
			if err != nil {
				return err
			}
			for _, f := range files {
				id, program, err := app.compile(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lines\n", id, len(program))
			}
			return nil
		},
	}
}

func (app *Application) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show <world-id>",
		Short:   "Print the stored program of a world",
		Example: "blockscript --store sqlite:programs.db show arena",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := app.store.Lines(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read program: %w", err)
			}
			if len(lines) == 0 {
				return fmt.Errorf("no program stored for world %q", args[0])
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func (app *Application) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run <layout.yaml> <scenario.yaml>",
		Short:   "Compile a layout and replay a scenario against an in-memory world",
		Example: "blockscript run arena_dev.yaml duel.yaml",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runScenario(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&app.realtime, "realtime", false, "advance ticks on a wall-clock ticker at --tick intervals")
	return cmd
}

// loadLayouts reads one layout file or every layout in a directory.
func loadLayouts(path string) ([]*layout.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	if !info.IsDir() {
		f, err := layout.Load(path)
		if err != nil {
			return nil, err
		}
		return []*layout.File{f}, nil
	}

	sources, err := layout.NewLoader(path).LoadAll()
	if err != nil {
		return nil, err
	}
	files := make([]*layout.File, 0, len(sources))
	for _, src := range sources {
		f, err := layout.Parse(src.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Path, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func (app *Application) compile(ctx context.Context, f *layout.File) (string, []string, error) {
	g, err := f.Grid()
	if err != nil {
		return "", nil, err
	}
	c := compiler.New(app.store, nil,
		compiler.WithLogger(app.log),
		compiler.WithWorldSuffix(app.config.WorldSuffix),
		compiler.WithTracer(app.tracing.GetTracer("blockscript/compiler")),
	)
	program, err := c.Compile(ctx, g)
	return c.WorldID(g), program, err
}

// runScenario compiles the layout, then fires each scenario event and
// prints the world journal entries it produced.
func (app *Application) runScenario(ctx context.Context, out io.Writer, layoutPath, scenarioPath string) error {
	f, err := layout.Load(layoutPath)
	if err != nil {
		return err
	}
	id, _, err := app.compile(ctx, f)
	if err != nil {
		return err
	}

	sc, err := layout.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	if sc.World != id {
		return fmt.Errorf("scenario world %q does not match compiled world %q", sc.World, id)
	}
	w, err := sc.Build()
	if err != nil {
		return fmt.Errorf("failed to build scenario world: %w", err)
	}
	steps, err := sc.Steps(w)
	if err != nil {
		return err
	}

	var misses atomic.Int64
	sched := vm.NewTickScheduler()
	interp := vm.New(app.store,
		vm.WithLogger(app.log),
		vm.WithScheduler(sched),
		vm.WithTracer(app.tracing.GetTracer("blockscript/vm")),
		vm.WithMissHandler(func(_ context.Context, err *vm.RuntimeError) {
			misses.Add(1)
			if err.IsFatal() {
				app.log.Error("call aborted", "type", string(err.Type), "error", err.Error())
				return
			}
			app.log.Warn("instruction skipped", "type", string(err.Type), "error", err.Error())
		}),
	)

	printed := 0
	for n, step := range steps {
		if _, err := interp.Fire(ctx, w, step.Trigger, step.Event); err != nil {
			return err
		}
		interp.Wait()
		if err := app.advance(ctx, sched, step.Ticks); err != nil {
			return err
		}
		interp.Wait()

		status := ""
		if step.Event.Cancelled() {
			status = " cancelled"
		}
		fmt.Fprintf(out, "[%d] %s %s%s\n", n+1, step.Event.Kind, triggerID(step.Trigger), status)
		printed = printJournal(out, w, printed)
	}

	if pending := sched.Pending(); pending > 0 {
		fmt.Fprintf(out, "pending: %d\n", pending)
	}
	app.log.Info("scenario finished", "world", id, "events", len(steps), "misses", misses.Load())
	return nil
}

// advance moves the scheduler n ticks, on a wall-clock ticker in realtime
// mode.
func (app *Application) advance(ctx context.Context, sched *vm.TickScheduler, n int) error {
	if app.realtime {
		return sched.RunFor(ctx, app.config.Tick, n)
	}
	sched.Advance(ctx, n)
	return ctx.Err()
}

func printJournal(out io.Writer, w *world.MemoryWorld, from int) int {
	journal := w.Journal()
	for _, entry := range journal[from:] {
		fmt.Fprintln(out, entry)
	}
	return len(journal)
}

func triggerID(e world.Entity) string {
	if e == nil {
		return "-"
	}
	return e.ID()
}
