package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pakt-pm/pakt/pkg/errors"
)

// fakeTarballs serves canned bytes per URL and tracks peak concurrency.
type fakeTarballs struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing map[string]bool

	inflight atomic.Int64
	peak     atomic.Int64
	barrier  chan struct{} // when set, downloads block until it closes
}

func newFakeTarballs() *fakeTarballs {
	return &fakeTarballs{data: make(map[string][]byte), failing: make(map[string]bool)}
}

func (f *fakeTarballs) DownloadTarball(ctx context.Context, url string, w io.Writer) error {
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	if f.barrier != nil {
		select {
		case <-f.barrier:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	failing := f.failing[url]
	data := f.data[url]
	f.mu.Unlock()

	if failing {
		return errors.New(errors.ErrCodeNetwork, "download %s", url)
	}
	_, err := w.Write(data)
	return err
}

func item(name, version string) Item {
	return Item{
		Name:    name,
		Version: version,
		Tarball: fmt.Sprintf("https://registry.test/%s/-/%s-%s.tgz", name, name, version),
	}
}

func TestRunDownloadsEveryItem(t *testing.T) {
	src := newFakeTarballs()
	items := []Item{item("a", "1.0.0"), item("b", "2.0.0")}
	for _, it := range items {
		src.data[it.Tarball] = []byte("tar:" + it.Key())
	}

	dir := t.TempDir()
	report, err := NewDownloader(src, dir, 4).Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("Failed = %v", report.Failed)
	}
	if len(report.Downloaded) != 2 {
		t.Fatalf("Downloaded = %v", report.Downloaded)
	}

	got, err := os.ReadFile(filepath.Join(dir, "a-1.0.0", "package.tgz"))
	if err != nil {
		t.Fatalf("read downloaded tarball: %v", err)
	}
	if string(got) != "tar:a@1.0.0" {
		t.Errorf("tarball contents = %q", got)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	src := newFakeTarballs()
	good := item("good", "1.0.0")
	bad := item("bad", "1.0.0")
	src.data[good.Tarball] = []byte("ok")
	src.failing[bad.Tarball] = true

	dir := t.TempDir()
	d := NewDownloader(src, dir, 2)
	var logged atomic.Int64
	d.Logger = func(string, ...any) { logged.Add(1) }

	report, err := d.Run(context.Background(), []Item{bad, good})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Downloaded) != 1 || len(report.Failed) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Failed[0].Item.Name != "bad" {
		t.Errorf("failed item = %v", report.Failed[0].Item)
	}
	if logged.Load() != 1 {
		t.Errorf("logged %d failures, want 1", logged.Load())
	}
	if _, err := os.Stat(filepath.Join(dir, "bad-1.0.0")); !os.IsNotExist(err) {
		t.Error("failed download left a package dir behind")
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	src := newFakeTarballs()
	src.barrier = make(chan struct{})

	var items []Item
	for i := 0; i < 8; i++ {
		it := item(fmt.Sprintf("pkg-%d", i), "1.0.0")
		src.data[it.Tarball] = []byte("x")
		items = append(items, it)
	}

	done := make(chan struct{})
	var report *Report
	var runErr error
	go func() {
		defer close(done)
		report, runErr = NewDownloader(src, t.TempDir(), 3).Run(context.Background(), items)
	}()

	// Let workers saturate the limit, then release them.
	for src.inflight.Load() < 3 {
		time.Sleep(time.Millisecond)
	}
	close(src.barrier)
	<-done

	if runErr != nil {
		t.Fatalf("Run() error: %v", runErr)
	}
	if len(report.Downloaded) != 8 {
		t.Fatalf("Downloaded = %d items, want 8", len(report.Downloaded))
	}
	if peak := src.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

func TestRunStagesInsideTargetDir(t *testing.T) {
	// Staging must share a filesystem with the target directory or the
	// final rename fails with EXDEV when /tmp is tmpfs.
	src := newFakeTarballs()
	src.barrier = make(chan struct{})
	it := item("a", "1.0.0")
	src.data[it.Tarball] = []byte("x")

	dir := t.TempDir()
	done := make(chan struct{})
	var report *Report
	var runErr error
	go func() {
		defer close(done)
		report, runErr = NewDownloader(src, dir, 1).Run(context.Background(), []Item{it})
	}()

	for src.inflight.Load() < 1 {
		time.Sleep(time.Millisecond)
	}
	staged, err := filepath.Glob(filepath.Join(dir, ".staging-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 {
		t.Errorf("found %d staging dirs under the target, want 1", len(staged))
	}

	close(src.barrier)
	<-done
	if runErr != nil {
		t.Fatalf("Run() error: %v", runErr)
	}
	if len(report.Downloaded) != 1 {
		t.Fatalf("report = %+v", report)
	}

	staged, err = filepath.Glob(filepath.Join(dir, ".staging-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 0 {
		t.Errorf("staging dir not cleaned up: %v", staged)
	}
	if _, err := os.Stat(filepath.Join(dir, "a-1.0.0", "package.tgz")); err != nil {
		t.Errorf("tarball missing after run: %v", err)
	}
}

func TestRunReportsProgress(t *testing.T) {
	src := newFakeTarballs()
	items := []Item{item("a", "1.0.0"), item("b", "1.0.0"), item("c", "1.0.0")}
	for _, it := range items {
		src.data[it.Tarball] = []byte("x")
	}

	d := NewDownloader(src, t.TempDir(), 1)
	var calls []int
	d.OnProgress = func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		calls = append(calls, done)
	}

	if _, err := d.Run(context.Background(), items); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(calls) != 3 || calls[len(calls)-1] != 3 {
		t.Errorf("progress calls = %v, want three ending at 3", calls)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newFakeTarballs()
	src.barrier = make(chan struct{})
	it := item("a", "1.0.0")
	src.data[it.Tarball] = []byte("x")

	_, err := NewDownloader(src, t.TempDir(), 1).Run(ctx, []Item{it})
	if err == nil {
		t.Error("Run() expected error for canceled context")
	}
}
