package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/utils"
)

const (
	DefaultPath    = "temp/resume.pdf"
	DefaultTimeout = 30 * time.Second
)

var ErrNoResume = errors.New("no resume uploaded")

// Runner lets tests stub the external pdftotext binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		slog.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", utils.Truncate(errb.String(), 8<<10),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

// Extractor reads the text layer of the uploaded resume.
type Extractor struct {
	Path      string
	Pdftotext string
	Timeout   time.Duration
	runner    Runner
}

func NewExtractor(path, pdftotext string, timeout time.Duration) *Extractor {
	if path == "" {
		path = DefaultPath
	}
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{Path: path, Pdftotext: pdftotext, Timeout: timeout, runner: execRunner{}}
}

// WithRunner swaps the command runner.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract returns the resume text with page breaks removed.
func (e *Extractor) Extract(ctx context.Context) (string, error) {
	if _, err := os.Stat(e.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoResume
		}
		return "", fmt.Errorf("stat resume: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", e.Path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "\n"))
	if text == "" {
		return "", fmt.Errorf("resume %s has no text layer", e.Path)
	}
	return text, nil
}
