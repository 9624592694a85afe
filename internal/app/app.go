// Package app implements the application layer for drainage.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.trai.ch/drainage/internal/adapters/detector"
	"go.trai.ch/drainage/internal/adapters/history"
	"go.trai.ch/drainage/internal/adapters/linear"
	"go.trai.ch/drainage/internal/adapters/telemetry"
	"go.trai.ch/drainage/internal/adapters/tui"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/drainage/internal/engine/bus"
	"go.trai.ch/drainage/internal/engine/scheduler"
	"go.trai.ch/drainage/internal/stages"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Engine names accepted by RunOptions.Engine.
const (
	EngineQGIS   = "qgis"
	EngineDryRun = "dry-run"
)

// StateDir holds per-pipeline state below the pipeline root.
const StateDir = ".drainage"

// HistoryOpener opens the run history database at path.
type HistoryOpener func(path string) (ports.HistoryStore, error)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	tracer       *telemetry.OTelTracer
	store        ports.LayerStore
	resolver     ports.InputResolver
	logger       ports.Logger
	engines      map[string]ports.ProcessingEngine
	openHistory  HistoryOpener
	teaOptions   []tea.ProgramOption
	stdout       io.Writer
	stderr       io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	tracer *telemetry.OTelTracer,
	store ports.LayerStore,
	resolver ports.InputResolver,
	log ports.Logger,
	engines map[string]ports.ProcessingEngine,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		tracer:       tracer,
		store:        store,
		resolver:     resolver,
		logger:       log,
		engines:      engines,
		openHistory: func(path string) (ports.HistoryStore, error) {
			return history.Open(path)
		},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects the linear renderer.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithHistoryOpener replaces the SQLite run history.
func (a *App) WithHistoryOpener(open HistoryOpener) *App {
	a.openHistory = open
	return a
}

// Logger returns the application logger.
func (a *App) Logger() ports.Logger {
	return a.logger
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// ConfigPath is the pipeline file or a directory to search. Defaults to ".".
	ConfigPath string
	// Concurrency overrides the pipeline's setting when positive.
	Concurrency int
	OutputMode  string
	// Engine selects the processing engine. Defaults to EngineQGIS.
	Engine string
	// HistoryPath overrides the run history location.
	HistoryPath string
	// NoHistory disables recording the report.
	NoHistory bool
}

// Run executes the pipeline and returns its report. The error is nil only
// when every stage succeeded and every persisted layer was written.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, opts RunOptions) (*domain.Report, error) {
	// 1. Load and compile the pipeline
	pipeline, err := a.configLoader.Load(configPath(opts.ConfigPath))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	engine, err := a.engine(opts.Engine)
	if err != nil {
		return nil, err
	}

	executionID := uuid.NewString()
	workDir := filepath.Join(pipeline.Root, StateDir, "work", executionID)

	plan, err := stages.Compile(pipeline, &stages.Env{
		Engine:   engine,
		Store:    a.store,
		Resolver: a.resolver,
		Logger:   a.logger,
		Root:     pipeline.Root,
		WorkDir:  workDir,
		CRS:      pipeline.CRS,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to compile pipeline")
	}
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create work directory"), "path", workDir)
	}

	// 2. Initialize Renderer
	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	var renderer ports.Renderer
	if mode == detector.ModeTUI {
		renderer = tui.NewRenderer(a.teaOptions...)
	} else {
		renderer = linear.NewRenderer(a.stdout, a.stderr)
	}

	// 3. Initialize Telemetry
	// Engine output written to task spans is batched and streamed to the renderer.
	shutdown := telemetry.InstallProvider()
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()
	a.tracer.WithLogSink(renderer.OnTaskLog)
	defer a.tracer.WithLogSink(nil)

	// 4. Persist layers as their stages succeed
	results := bus.New()
	persisted := a.persist(ctx, results, plan.Persist, outputDir(pipeline))

	// 5. Run Renderer and Scheduler concurrently
	var report *domain.Report
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		var runErr error
		report, runErr = a.scheduler.Run(gctx, plan.Graph, scheduler.Options{
			Concurrency: concurrency(opts.Concurrency, pipeline.Concurrency),
			Bus:         results,
			Observer:    renderer,
			ExecutionID: executionID,
		})
		return runErr
	})

	runErr := g.Wait()
	persistErr := persisted.Wait()

	if report != nil && !opts.NoHistory {
		a.record(ctx, historyPath(opts.HistoryPath, pipeline.Root), pipeline.Root, report)
	}

	return report, errors.Join(runErr, persistErr)
}

// persist copies the payload of each listed task into dir once the task
// succeeds. Writes run off the delivery path; the returned group waits for them.
func (a *App) persist(ctx context.Context, results *bus.Bus, ids []domain.TaskID, dir string) *errgroup.Group {
	g := new(errgroup.Group)
	for _, id := range ids {
		results.Subscribe(id, func(evt domain.Event) {
			handle, ok := evt.Outcome.Payload.(domain.LayerHandle)
			if evt.Outcome.Kind != domain.OutcomeSucceeded || !ok {
				return
			}
			g.Go(func() error {
				written, err := a.store.Write(ctx, handle, filepath.Join(dir, filepath.Base(handle.Path)))
				if err != nil {
					return zerr.With(zerr.Wrap(err, "failed to persist layer"), "task", evt.TaskID.String())
				}
				a.logger.Info(fmt.Sprintf("persisted %s to %s (%s)", written.Name, written.Path, written.Fingerprint))
				return nil
			})
		})
	}
	return g
}

// record stores the report. History failures never fail the run.
func (a *App) record(ctx context.Context, path, pipeline string, report *domain.Report) {
	store, err := a.openHistory(path)
	if err != nil {
		a.logger.Warn("run history unavailable: " + err.Error())
		return
	}
	defer func() {
		_ = store.Close()
	}()
	if err := store.Record(context.WithoutCancel(ctx), pipeline, report); err != nil {
		a.logger.Warn("failed to record run: " + err.Error())
	}
}

// Validate loads the pipeline, constructs every stage and validates the
// graph without running it. It returns the stage labels in execution order.
func (a *App) Validate(_ context.Context, path string) ([]string, error) {
	pipeline, err := a.configLoader.Load(configPath(path))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	engine, err := a.engine(EngineDryRun)
	if err != nil {
		return nil, err
	}
	plan, err := stages.Compile(pipeline, &stages.Env{
		Engine:   engine,
		Store:    a.store,
		Resolver: a.resolver,
		Logger:   a.logger,
		Root:     pipeline.Root,
		WorkDir:  filepath.Join(pipeline.Root, StateDir, "work"),
		CRS:      pipeline.CRS,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to compile pipeline")
	}
	if err := plan.Graph.Validate(); err != nil {
		return nil, err
	}

	order := make([]string, 0, plan.Graph.TaskCount())
	for task := range plan.Graph.Walk() {
		order = append(order, task.Label())
	}
	return order, nil
}

// HistoryOptions configuration for the History method.
type HistoryOptions struct {
	ConfigPath  string
	HistoryPath string
	Limit       int
}

// History lists past executions of the pipeline, newest first.
func (a *App) History(ctx context.Context, opts HistoryOptions) ([]domain.RunSummary, error) {
	path := opts.HistoryPath
	if path == "" {
		pipeline, err := a.configLoader.Load(configPath(opts.ConfigPath))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to load configuration")
		}
		path = historyPath("", pipeline.Root)
	}

	store, err := a.openHistory(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = store.Close()
	}()
	return store.List(ctx, opts.Limit)
}

func (a *App) engine(name string) (ports.ProcessingEngine, error) {
	if name == "" {
		name = EngineQGIS
	}
	engine, ok := a.engines[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "unknown processing engine"), "engine", name)
	}
	return engine, nil
}

// DefaultOutputDir receives persisted layers when the pipeline names no
// output directory.
const DefaultOutputDir = "output"

func outputDir(p *domain.Pipeline) string {
	if p.OutputDir != "" {
		return p.OutputDir
	}
	return filepath.Join(p.Root, DefaultOutputDir)
}

func configPath(path string) string {
	if path == "" {
		return "."
	}
	return path
}

func historyPath(path, root string) string {
	if path != "" {
		return path
	}
	return filepath.Join(root, history.DefaultPath)
}

// concurrency picks the flag over the pipeline setting and falls back to
// one task per CPU.
func concurrency(flag, pipeline int) int {
	switch {
	case flag > 0:
		return flag
	case pipeline > 0:
		return pipeline
	default:
		return runtime.NumCPU()
	}
}
