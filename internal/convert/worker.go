package convert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"font-converter/internal/fontkit"
)

// Request contains the inputs and callbacks for one batch conversion.
type Request struct {
	InputPaths []string
	Formats    []fontkit.Format
	OutputDir  string
	OnProgress func(percent int)
	OnMessage  func(message string)
}

// FormatOutcome is the result of producing one output format for a file.
type FormatOutcome struct {
	Format     fontkit.Format `json:"format"`
	OutputPath string         `json:"outputPath"`
	Error      string         `json:"error,omitempty"`
}

// FileOutcome records what happened to one input file.
type FileOutcome struct {
	InputPath string          `json:"inputPath"`
	Loaded    bool            `json:"loaded"`
	Error     string          `json:"error,omitempty"`
	Formats   []FormatOutcome `json:"formats,omitempty"`
}

// Result summarizes a finished or cancelled run.
type Result struct {
	Completed    bool          `json:"completed"`
	SuccessCount int           `json:"successCount"`
	TotalFiles   int           `json:"totalFiles"`
	Files        []FileOutcome `json:"files"`
}

// Summary formats the user-facing "Converted X/Y files" line.
func (r Result) Summary() string {
	return fmt.Sprintf("Converted %d/%d files", r.SuccessCount, r.TotalFiles)
}

// ConversionError is a file- or format-level failure. Format is empty when
// the input could not be loaded.
type ConversionError struct {
	Path    string         `json:"path"`
	Format  fontkit.Format `json:"format,omitempty"`
	Message string         `json:"message,omitempty"`
	Err     error          `json:"-"`
}

// Error formats the failure as shown to the user.
func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	reason := e.Message
	if e.Err != nil {
		reason = e.Err.Error()
	}

	switch {
	case e.Format == "":
		return fmt.Sprintf("Error processing %s: %s", filepath.Base(e.Path), reason)
	case errors.Is(e.Err, fontkit.ErrCodecUnavailable):
		return fmt.Sprintf("WOFF2 conversion failed (need brotli): %s", reason)
	default:
		return fmt.Sprintf("Error converting to %s: %s", e.Format, reason)
	}
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// fontEngine is the subset of fontkit.Engine the worker needs.
type fontEngine interface {
	Load(path string) (*fontkit.Font, error)
	Save(f *fontkit.Font, format fontkit.Format, path string) error
}

// Worker converts every input file to every requested format, one file at
// a time. Failures are reported and skipped; only cancellation stops a run.
type Worker struct {
	engine   fontEngine
	sameFile func(a, b string) bool
}

// NewWorker builds a worker backed by the font engine.
func NewWorker(engine *fontkit.Engine) *Worker {
	return &Worker{
		engine:   engine,
		sameFile: sameFile,
	}
}

// Run processes req and returns once all files are done or ctx is
// cancelled. ctx is checked before every file and every format; files
// already written stay on disk.
func (w *Worker) Run(ctx context.Context, req Request) Result {
	total := len(req.InputPaths)
	result := Result{
		TotalFiles: total,
		Files:      make([]FileOutcome, 0, total),
	}

	for i, inputPath := range req.InputPaths {
		if ctx.Err() != nil {
			return result
		}

		emitMessage(req.OnMessage, "Processing "+filepath.Base(inputPath))
		outcome, interrupted := w.convertFile(ctx, inputPath, req)
		result.Files = append(result.Files, outcome)
		if interrupted {
			return result
		}
		if outcome.Loaded {
			result.SuccessCount++
		}
		emitProgress(req.OnProgress, percentDone(i+1, total))
	}

	result.Completed = true
	return result
}

// convertFile loads one font and writes each requested format. It reports
// interrupted when cancellation stopped it between formats.
func (w *Worker) convertFile(ctx context.Context, inputPath string, req Request) (FileOutcome, bool) {
	outcome := FileOutcome{InputPath: inputPath}

	font, err := w.engine.Load(inputPath)
	if err != nil {
		convErr := &ConversionError{Path: inputPath, Err: err}
		outcome.Error = convErr.Error()
		emitMessage(req.OnMessage, outcome.Error)
		return outcome, false
	}
	outcome.Loaded = true

	for _, format := range req.Formats {
		if ctx.Err() != nil {
			return outcome, true
		}

		outPath := filepath.Join(req.OutputDir, outputFileName(inputPath, format))
		formatOutcome := FormatOutcome{Format: format, OutputPath: outPath}
		if err := w.writeFormat(font, inputPath, format, outPath); err != nil {
			formatOutcome.Error = err.Error()
			emitMessage(req.OnMessage, formatOutcome.Error)
		} else {
			emitMessage(req.OnMessage, "Created "+filepath.Base(outPath))
		}
		outcome.Formats = append(outcome.Formats, formatOutcome)
	}
	return outcome, false
}

// writeFormat saves one output, refusing to overwrite the input file.
func (w *Worker) writeFormat(font *fontkit.Font, inputPath string, format fontkit.Format, outPath string) error {
	if w.sameFile(inputPath, outPath) {
		return &ConversionError{
			Path:    inputPath,
			Format:  format,
			Message: "output would overwrite the input file",
		}
	}
	if err := w.engine.Save(font, format, outPath); err != nil {
		return &ConversionError{Path: inputPath, Format: format, Err: err}
	}
	return nil
}

// outputFileName builds "<input basename>.<format extension>".
func outputFileName(inputPath string, format fontkit.Format) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "font"
	}
	return name + "." + format.Extension()
}

// percentDone rounds done/total to a whole percentage.
func percentDone(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// sameFile reports whether a and b name the same file on disk.
func sameFile(a, b string) bool {
	aInfo, aErr := os.Stat(a)
	bInfo, bErr := os.Stat(b)
	if aErr == nil && bErr == nil {
		return os.SameFile(aInfo, bInfo)
	}

	aAbs, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	bAbs, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aAbs == bAbs
}

// emitMessage forwards a message when the callback is configured.
func emitMessage(cb func(message string), message string) {
	if cb != nil {
		cb(message)
	}
}

// emitProgress forwards a percentage when the callback is configured.
func emitProgress(cb func(percent int), percent int) {
	if cb != nil {
		cb(percent)
	}
}

// NewWorkerForTests constructs a worker with an injectable engine.
func NewWorkerForTests(engine fontEngine, sameFile func(a, b string) bool) *Worker {
	return &Worker{
		engine:   engine,
		sameFile: sameFile,
	}
}
