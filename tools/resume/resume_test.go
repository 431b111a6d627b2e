package resume

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRunner struct {
	out  string
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	if f.err != nil {
		return nil, []byte("Syntax Error"), f.err
	}
	return []byte(f.out), nil, nil
}

func writeResume(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestExtractJoinsPages(t *testing.T) {
	path := writeResume(t)
	runner := &fakeRunner{out: "Jane Doe\nGo engineer\f Page two\n"}
	e := NewExtractor(path, "", 0).WithRunner(runner)

	text, err := e.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "Jane Doe\nGo engineer\n Page two" {
		t.Fatalf("text %q", text)
	}
	if got := strings.Join(runner.args, " "); got != "pdftotext -layout -enc UTF-8 -eol unix "+path+" -" {
		t.Fatalf("command %q", got)
	}
}

func TestExtractMissingResume(t *testing.T) {
	e := NewExtractor(filepath.Join(t.TempDir(), "none.pdf"), "", 0).WithRunner(&fakeRunner{})
	if _, err := e.Extract(context.Background()); !errors.Is(err, ErrNoResume) {
		t.Fatalf("expected ErrNoResume, got %v", err)
	}
}

func TestExtractCommandFailure(t *testing.T) {
	e := NewExtractor(writeResume(t), "", 0).WithRunner(&fakeRunner{err: errors.New("exit status 1")})
	if _, err := e.Extract(context.Background()); err == nil || !strings.Contains(err.Error(), "Syntax Error") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := NewExtractor(writeResume(t), "", 0).WithRunner(&fakeRunner{out: " \f \n"})
	if _, err := e.Extract(context.Background()); err == nil {
		t.Fatalf("expected empty text error")
	}
}
