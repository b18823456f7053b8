package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pakt-pm/pakt/pkg/errors"
)

// TarballSource streams a package tarball.
type TarballSource interface {
	DownloadTarball(ctx context.Context, url string, w io.Writer) error
}

// Failure records one item that could not be downloaded.
type Failure struct {
	Item Item
	Err  error
}

// Report summarizes a download run.
type Report struct {
	Downloaded []string // final tarball paths, one per successful item
	Failed     []Failure
}

// Downloader fetches plan items concurrently into a target directory.
type Downloader struct {
	src         TarballSource
	dir         string
	concurrency int

	// OnProgress is called after each item completes (success or failure)
	// with the number of finished items and the total. Optional; called
	// from worker goroutines.
	OnProgress func(done, total int)

	// Logger receives per-item failure notices. Optional.
	Logger func(string, ...any)
}

// NewDownloader creates a Downloader writing into dir with at most
// concurrency parallel downloads.
func NewDownloader(src TarballSource, dir string, concurrency int) *Downloader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Downloader{src: src, dir: dir, concurrency: concurrency}
}

func (d *Downloader) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger(format, args...)
	}
}

// Run downloads every item. Items land in a per-run staging directory
// first and move into the target directory only once fully written, so an
// interrupted run never leaves truncated tarballs behind. The staging
// directory lives inside the target directory, keeping the final rename on
// the same filesystem (a /tmp staging dir breaks on tmpfs with EXDEV).
// One item failing does not stop the others; failures are collected into
// the report.
//
// Run returns an error only when the context is canceled or the target
// directories cannot be created.
func (d *Downloader) Run(ctx context.Context, items []Item) (*Report, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", d.dir)
	}
	staging := filepath.Join(d.dir, ".staging-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create staging dir")
	}
	defer os.RemoveAll(staging)

	var (
		mu     sync.Mutex
		report Report
		done   atomic.Int64
		total  = len(items)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			err := d.fetchOne(ctx, staging, item)

			mu.Lock()
			if err != nil {
				report.Failed = append(report.Failed, Failure{Item: item, Err: err})
			} else {
				report.Downloaded = append(report.Downloaded, d.targetPath(item))
			}
			mu.Unlock()

			if err != nil {
				d.logf("download %s: %v", item.Key(), err)
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			if d.OnProgress != nil {
				d.OnProgress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &report, nil
}

func (d *Downloader) fetchOne(ctx context.Context, staging string, item Item) error {
	tmp := filepath.Join(staging, dirName(item)+".tgz")
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", tmp)
	}

	if err := d.src.DownloadTarball(ctx, item.Tarball, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "flush %s", tmp)
	}
	if err := os.MkdirAll(d.targetDir(item), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create package dir for %s", item.Key())
	}
	if err := os.Rename(tmp, d.targetPath(item)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "move %s into place", item.Key())
	}
	return nil
}

// targetDir gives each name@version its own directory so packages never
// share files.
func (d *Downloader) targetDir(item Item) string {
	return filepath.Join(d.dir, dirName(item))
}

func (d *Downloader) targetPath(item Item) string {
	return filepath.Join(d.targetDir(item), "package.tgz")
}

// dirName flattens scoped names ("@scope/pkg") into a single path segment.
func dirName(item Item) string {
	name := strings.ReplaceAll(item.Name, "/", "-")
	name = strings.TrimPrefix(name, "@")
	return fmt.Sprintf("%s-%s", name, item.Version)
}
