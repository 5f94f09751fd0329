package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"font-converter/internal/config"
	"font-converter/internal/convert"
	"font-converter/internal/diagnostics"
	"font-converter/internal/domain"
	"font-converter/internal/fontkit"
	"font-converter/internal/jobs"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// defaultOutputDirName is created next to the first input when no output
// directory was chosen.
const defaultOutputDirName = "converted_fonts"

var fontDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Font files",
		Pattern:     "*.ttf;*.otf;*.woff;*.woff2;*.eot",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// ErrNoFormats is returned when a conversion is started without formats.
var ErrNoFormats = errors.New("please select at least one output format")

// ErrNoInputFiles is returned when a conversion is started without files.
var ErrNoInputFiles = errors.New("no files to convert")

// App wires configuration, jobs, the conversion worker, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Converter   converterRunner
	Formats     formatSupport
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	confirmQuit func(ctx context.Context) (bool, error)

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	done        chan struct{}
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// converterRunner isolates the conversion worker behind an interface.
type converterRunner interface {
	Run(ctx context.Context, req convert.Request) convert.Result
}

// formatSupport reports whether an output format can be produced.
type formatSupport interface {
	Supports(format fontkit.Format) error
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	settingsPath, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	store := config.NewJSONStore(settingsPath)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	engine := fontkit.NewEngine()
	checker := diagnostics.NewChecker(engine)
	report := checker.Run(settings)

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Converter:   convert.NewWorker(engine),
		Formats:     engine,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		confirmQuit: confirmQuitDialog,
		events:      jobs.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:         "Font Converter",
		Width:         960,
		Height:        640,
		AssetServer:   assetOptions,
		OnStartup:     a.Startup,
		OnBeforeClose: a.BeforeClose,
		OnShutdown:    a.Shutdown,
		Bind:          []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// BeforeClose asks for confirmation while a conversion runs. Confirming
// cancels the job and waits for the worker before the window closes.
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	if !a.Jobs.IsRunning() {
		return false
	}

	confirmed, err := a.confirmQuit(ctx)
	if err != nil {
		log.Printf("quit confirmation: %v", err)
		return true
	}
	if !confirmed {
		return true
	}

	a.stopActiveJob()
	return false
}

// Shutdown stops any remaining worker and drops the runtime context.
func (a *App) Shutdown(ctx context.Context) {
	a.stopActiveJob()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized, err := normalizeSettings(settings)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// PickFontFiles opens a native multi-select dialog for font files.
func (a *App) PickFontFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select font files",
		Filters: fontDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// PickOutputDirectory opens a native directory picker for converted fonts.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	current := a.Settings.OutputDir
	a.mu.Unlock()

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:            "Select Output Directory",
		DefaultDirectory: current,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or the last job's output dir) in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Jobs.Current().OutputDir
	}
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// RefreshDiagnostics reloads settings and reruns the startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	return a.refreshDiagnosticsFromSettings(settings), nil
}

// StartConversion validates the selection and converts inputPaths to every
// format in formats on a background goroutine.
func (a *App) StartConversion(inputPaths []string, formats []string, outputDir string) (domain.Job, error) {
	inputs, selected, err := a.validateRequest(inputPaths, formats)
	if err != nil {
		return domain.Job{}, err
	}
	if a.Jobs.IsRunning() {
		return domain.Job{}, jobs.ErrJobAlreadyRunning
	}

	// A cancelled job may still be unwinding; join it first.
	a.mu.Lock()
	previous := a.done
	a.mu.Unlock()
	if previous != nil {
		<-previous
	}

	resolvedDir := resolveOutputDir(outputDir, inputs[0])
	if err := os.MkdirAll(resolvedDir, 0o755); err != nil {
		return domain.Job{}, fmt.Errorf("create output directory %s: %w", resolvedDir, err)
	}

	job := domain.Job{
		ID:         "job-" + uuid.NewString(),
		OutputDir:  resolvedDir,
		Formats:    formatNames(selected),
		TotalFiles: len(inputs),
		StartedAt:  time.Now().UTC(),
		EventSeq:   a.events.LastSeq(),
	}
	if err := a.Jobs.Start(job); err != nil {
		return domain.Job{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.mu.Lock()
	a.activeJobID = job.ID
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	a.publishStatus(job.ID, domain.JobStatusRunning, "Conversion started...")
	a.rememberSelection(job.ID, outputDir, job.Formats)
	log.Printf("job %s: converting %d files to %s in %s", job.ID, len(inputs), strings.Join(job.Formats, ","), resolvedDir)

	go a.runConversionJob(ctx, cancel, job, inputs, selected, done)
	return a.Jobs.Current(), nil
}

// CancelConversion stops the running job and waits for its worker to exit.
func (a *App) CancelConversion() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	a.stopActiveJob()
	if a.Jobs.Current().Status == domain.JobStatusCancelled {
		a.publishStatus(activeJobID, domain.JobStatusCancelled, "Conversion cancelled")
	}
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq. Passing
// Job.EventSeq replays only the events of that job.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// runConversionJob executes the worker and maps its callbacks to job events.
func (a *App) runConversionJob(ctx context.Context, cancel context.CancelFunc, job domain.Job, inputs []string, formats []fontkit.Format, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer a.clearActiveJob(job.ID)

	req := convert.Request{
		InputPaths: inputs,
		Formats:    formats,
		OutputDir:  job.OutputDir,
		OnProgress: func(percent int) {
			a.publishEvent(jobs.Event{
				JobID:   job.ID,
				Type:    jobs.EventTypeProgress,
				Percent: percent,
			})
		},
		OnMessage: func(message string) {
			a.publishEvent(jobs.Event{
				JobID:   job.ID,
				Type:    jobs.EventTypeMessage,
				Message: message,
			})
		},
	}

	result := a.Converter.Run(ctx, req)
	for _, file := range result.Files {
		if file.Error != "" {
			log.Printf("job %s: %s", job.ID, file.Error)
		}
		for _, format := range file.Formats {
			if format.Error != "" {
				log.Printf("job %s: %s: %s", job.ID, filepath.Base(file.InputPath), format.Error)
			}
		}
	}

	status := domain.JobStatusCancelled
	if result.Completed {
		status = domain.JobStatusCompleted
	}
	if err := a.Jobs.Transition(status); err != nil {
		status = a.Jobs.Current().Status
	}

	a.publishEvent(jobs.Event{
		JobID:        job.ID,
		Type:         jobs.EventTypeResult,
		Status:       status,
		Message:      result.Summary(),
		Completed:    result.Completed,
		SuccessCount: result.SuccessCount,
		TotalFiles:   result.TotalFiles,
		OutputDir:    job.OutputDir,
	})
	log.Printf("job %s: %s (completed=%t)", job.ID, result.Summary(), result.Completed)
}

// validateRequest performs the checks that must pass before a job starts.
func (a *App) validateRequest(inputPaths []string, formats []string) ([]string, []fontkit.Format, error) {
	selected, err := parseFormats(formats)
	if err != nil {
		return nil, nil, err
	}
	for _, format := range selected {
		if err := a.Formats.Supports(format); err != nil {
			if errors.Is(err, fontkit.ErrCodecUnavailable) {
				return nil, nil, fmt.Errorf("WOFF2 conversion requires brotli support in this build: %w", err)
			}
			return nil, nil, err
		}
	}
	if len(selected) == 0 {
		return nil, nil, ErrNoFormats
	}

	inputs := make([]string, 0, len(inputPaths))
	for _, path := range inputPaths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			inputs = append(inputs, trimmed)
		}
	}
	if len(inputs) == 0 {
		return nil, nil, ErrNoInputFiles
	}
	return inputs, selected, nil
}

// rememberSelection stores the chosen output dir and formats as defaults.
// Failures are reported as job events but do not stop the job.
func (a *App) rememberSelection(jobID string, outputDir string, formats []string) {
	settings := domain.Settings{
		OutputDir: strings.TrimSpace(outputDir),
		Formats:   formats,
	}
	if err := a.Store.Save(settings); err != nil {
		a.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Message: fmt.Sprintf("save settings: %v", err),
		})
		return
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
}

// stopActiveJob cancels the running worker, if any, and waits for it.
func (a *App) stopActiveJob() {
	a.mu.Lock()
	cancel := a.cancel
	done := a.done
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if err := a.Jobs.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		log.Printf("cancel job: %v", err)
	}
	if done != nil {
		<-done
	}
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		a.activeJobID = ""
		a.cancel = nil
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// confirmQuitDialog asks whether to abandon a running conversion.
func confirmQuitDialog(ctx context.Context) (bool, error) {
	choice, err := wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:          wailsruntime.QuestionDialog,
		Title:         "Conversion in Progress",
		Message:       "A conversion is in progress. Are you sure you want to quit?",
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "No",
		CancelButton:  "No",
	})
	if err != nil {
		return false, err
	}
	return choice == "Yes", nil
}

// parseFormats validates raw format names and returns them in display
// order without duplicates.
func parseFormats(raw []string) ([]fontkit.Format, error) {
	seen := make(map[fontkit.Format]bool, len(raw))
	for _, name := range raw {
		if strings.TrimSpace(name) == "" {
			continue
		}
		format, err := fontkit.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		seen[format] = true
	}

	out := make([]fontkit.Format, 0, len(seen))
	for _, format := range fontkit.Formats() {
		if seen[format] {
			out = append(out, format)
		}
	}
	return out, nil
}

// formatNames converts formats back to their string names.
func formatNames(formats []fontkit.Format) []string {
	out := make([]string, len(formats))
	for i, format := range formats {
		out[i] = string(format)
	}
	return out
}

// resolveOutputDir falls back to converted_fonts next to the first input.
func resolveOutputDir(outputDir, firstInput string) string {
	if dir := strings.TrimSpace(outputDir); dir != "" {
		return dir
	}
	return filepath.Join(filepath.Dir(firstInput), defaultOutputDirName)
}

// normalizeSettings trims user inputs and canonicalizes the format list.
func normalizeSettings(settings domain.Settings) (domain.Settings, error) {
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	formats, err := parseFormats(settings.Formats)
	if err != nil {
		return domain.Settings{}, err
	}
	settings.Formats = formatNames(formats)
	return settings, nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
