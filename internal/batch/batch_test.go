package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/tabscan/internal/profile"
	"github.com/jackzampolin/tabscan/internal/providers"
	"github.com/jackzampolin/tabscan/internal/recognize"
	"github.com/jackzampolin/tabscan/internal/sheet"
	"github.com/jackzampolin/tabscan/internal/table"
)

type appended struct {
	rows   []table.Row
	source string
}

type fakeSink struct {
	appended []appended
	saved    []string
	saveErr  error
}

func (s *fakeSink) Append(rows []table.Row, source string) error {
	s.appended = append(s.appended, appended{rows: rows, source: source})
	return nil
}

func (s *fakeSink) Save(path string) error {
	s.saved = append(s.saved, path)
	return s.saveErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRecognizer(mock *providers.MockTransport) *recognize.Recognizer {
	builder := providers.NewBuilder(providers.Config{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "test-key",
		Endpoint: "http://unused.test/v1/chat/completions",
		Dialect:  providers.DialectOpenAI,
	})
	return recognize.New(builder, mock, recognize.WithLogger(quietLogger()))
}

// writeImages creates a small PNG for each name and returns the paths.
func writeImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func replies(texts ...string) []providers.MockReply {
	out := make([]providers.MockReply, len(texts))
	for i, s := range texts {
		out[i] = providers.MockReply{Text: s}
	}
	return out
}

func TestNewRunner(t *testing.T) {
	rec := newRecognizer(&providers.MockTransport{})
	sink := &fakeSink{}

	tests := map[string]struct {
		cfg  Config
		want error
	}{
		"freeform":      {cfg: Config{Recognizer: rec, Sink: sink, Mode: recognize.FreeformMode()}, want: ErrFreeform},
		"empty headers": {cfg: Config{Recognizer: rec, Sink: sink, Mode: recognize.HeadersMode(nil)}, want: recognize.ErrNoHeaders},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRunner(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("NewRunner() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("invalid profile", func(t *testing.T) {
		bad := &profile.Profile{Headers: []string{"a"}, ColumnCount: 2}
		if _, err := NewRunner(Config{Recognizer: rec, Sink: sink, Mode: recognize.ProfileMode(bad)}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing sink", func(t *testing.T) {
		if _, err := NewRunner(Config{Recognizer: rec, Mode: recognize.HeadersMode([]string{"a"})}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("continues past failures", func(t *testing.T) {
		dir := t.TempDir()
		paths := writeImages(t, dir, "a.png", "b.png", "c.png")
		bad := filepath.Join(dir, "bad.png")
		if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = []string{paths[0], paths[1], bad, paths[2]}

		mock := &providers.MockTransport{Replies: replies(
			"Item,Qty\nbolt,4",
			"Item,Qty,Extra\nwasher,9,x",
			"Item,Qty\nnut,7\nscrew,2",
		)}
		sink := &fakeSink{}
		runner, err := NewRunner(Config{
			Recognizer: newRecognizer(mock),
			Mode:       recognize.HeadersMode([]string{"Item", "Qty"}),
			Sink:       sink,
			Logger:     quietLogger(),
			MaxRetries: 1,
		})
		if err != nil {
			t.Fatalf("NewRunner() error = %v", err)
		}

		out := filepath.Join(dir, "result.xlsx")
		report, err := runner.Run(context.Background(), paths, out)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.RunID == "" {
			t.Error("run id not set")
		}
		if report.Succeeded != 2 || report.Failed != 2 || !report.Produced() {
			t.Errorf("report = %+v", report)
		}
		if report.Output != out || len(sink.saved) != 1 {
			t.Errorf("output = %q, saves = %v", report.Output, sink.saved)
		}
		if mock.RequestCount() != 3 {
			t.Errorf("calls = %d, want 3 (unreadable image makes none)", mock.RequestCount())
		}

		wantStatus := []Status{StatusSucceeded, StatusFailed, StatusFailed, StatusSucceeded}
		for i, item := range report.Items {
			if item.Status != wantStatus[i] {
				t.Errorf("item %d (%s) status = %s, want %s", i, item.Name, item.Status, wantStatus[i])
			}
		}
		if report.Items[1].Reason == "" || report.Items[2].Reason == "" {
			t.Error("failed items should carry a reason")
		}
		if report.Items[3].Rows != 2 {
			t.Errorf("rows = %d", report.Items[3].Rows)
		}

		if len(sink.appended) != 2 || sink.appended[0].source != "a.png" || sink.appended[1].source != "c.png" {
			t.Errorf("appended = %+v", sink.appended)
		}
	})

	t.Run("nothing produced is not saved", func(t *testing.T) {
		paths := writeImages(t, t.TempDir(), "a.png", "b.png")
		mock := &providers.MockTransport{Replies: replies("not,the,right,shape")}
		sink := &fakeSink{}
		runner, err := NewRunner(Config{
			Recognizer: newRecognizer(mock),
			Mode:       recognize.HeadersMode([]string{"Item", "Qty"}),
			Sink:       sink,
			Logger:     quietLogger(),
			MaxRetries: 2,
		})
		if err != nil {
			t.Fatal(err)
		}
		report, err := runner.Run(context.Background(), paths, "unused.xlsx")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.Produced() || report.Output != "" || len(sink.saved) != 0 {
			t.Errorf("report = %+v, saves = %v", report, sink.saved)
		}
		if report.Items[0].Attempts != 2 {
			t.Errorf("attempts = %d, want 2", report.Items[0].Attempts)
		}
	})

	t.Run("save failure is returned", func(t *testing.T) {
		paths := writeImages(t, t.TempDir(), "a.png")
		mock := &providers.MockTransport{Replies: replies("Item,Qty\nbolt,4")}
		sink := &fakeSink{saveErr: errors.New("disk full")}
		runner, _ := NewRunner(Config{
			Recognizer: newRecognizer(mock),
			Mode:       recognize.HeadersMode([]string{"Item", "Qty"}),
			Sink:       sink,
			Logger:     quietLogger(),
		})
		report, err := runner.Run(context.Background(), paths, "out.xlsx")
		if err == nil {
			t.Fatal("expected save error")
		}
		if report.Output != "" {
			t.Errorf("output = %q", report.Output)
		}
	})

	t.Run("cancelled context skips remaining", func(t *testing.T) {
		paths := writeImages(t, t.TempDir(), "a.png", "b.png")
		mock := &providers.MockTransport{Replies: replies("Item,Qty\nbolt,4")}
		runner, _ := NewRunner(Config{
			Recognizer: newRecognizer(mock),
			Mode:       recognize.HeadersMode([]string{"Item", "Qty"}),
			Sink:       &fakeSink{},
			Logger:     quietLogger(),
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := runner.Run(ctx, paths, "out.xlsx")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		if mock.RequestCount() != 0 {
			t.Errorf("calls = %d", mock.RequestCount())
		}
		for _, item := range report.Items {
			if item.Status != StatusSkipped {
				t.Errorf("item %s status = %s", item.Path, item.Status)
			}
		}
	})
}

func TestRunWithSheet(t *testing.T) {
	dir := t.TempDir()
	paths := writeImages(t, dir, "p1.png", "p2.png")
	p := &profile.Profile{Headers: []string{"Date", "Amount"}, ColumnCount: 2}

	writer, err := sheet.NewWriter(p.Headers, sheet.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()

	mock := &providers.MockTransport{Replies: replies(
		"```csv\nDate,Amount\n2024-01-02,10\n```",
		"Date,Amount\n2024-01-03,12",
	)}
	runner, err := NewRunner(Config{
		Recognizer: newRecognizer(mock),
		Mode:       recognize.ProfileMode(p),
		Sink:       writer,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.xlsx")
	if _, err := runner.Run(context.Background(), paths, out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet.DefaultSheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][2] != "p1.png" || rows[2][0] != "2024-01-03" {
		t.Errorf("rows = %v", rows)
	}
}

func TestSetPacing(t *testing.T) {
	runner, err := NewRunner(Config{
		Recognizer: newRecognizer(&providers.MockTransport{}),
		Mode:       recognize.HeadersMode([]string{"Item"}),
		Sink:       &fakeSink{},
		Pacing:     DefaultPacing,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := runner.limiter.Limit(); got != rate.Every(DefaultPacing) {
		t.Errorf("initial limit = %v", got)
	}

	runner.SetPacing(2 * time.Second)
	if got := runner.limiter.Limit(); got != rate.Every(2*time.Second) {
		t.Errorf("limit = %v, want one per 2s", got)
	}

	runner.SetPacing(0)
	if got := runner.limiter.Limit(); got != rate.Inf {
		t.Errorf("limit = %v, want unlimited", got)
	}
}
