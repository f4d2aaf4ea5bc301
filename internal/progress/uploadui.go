package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// UploadUI manages per-file progress bars for a run upload using mpb.
type UploadUI struct {
	progress   *mpb.Progress
	bars       sync.Map // file path -> *FileBar
	isTerminal bool
	totalFiles int
	started    int32
	completed  int32
}

// FileBar represents a single sequence file upload progress bar.
type FileBar struct {
	bar        *mpb.Bar
	ui         *UploadUI
	index      int
	filepath   string
	sample     string
	size       int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
}

// NewUploadUI creates an upload view sized for the given number of files.
// On a non-terminal stderr the bars are suppressed and plain messages are
// printed instead.
func NewUploadUI(totalFiles int) *UploadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:   p,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar creates a progress bar for one sequence file upload.
func (u *UploadUI) AddFileBar(localPath, sample string, size int64) *FileBar {
	index := int(atomic.AddInt32(&u.started, 1))
	sourcePath := truncatePath(localPath, 2)

	fb := &FileBar{
		ui:         u,
		index:      index,
		filepath:   localPath,
		sample:     sample,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s (%.1f MiB) sample %s",
					fb.index, u.totalFiles,
					sourcePath,
					float64(size)/(1024*1024),
					sample), decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "Uploading [%d/%d]: %s (%.1f MiB) sample %s\n",
			fb.index, u.totalFiles,
			sourcePath,
			float64(size)/(1024*1024),
			sample)
	}

	u.bars.Store(localPath, fb)
	return fb
}

// Update advances the bar to an absolute byte position, throttled to the
// refresh rate so EWMA speed stays accurate.
func (f *FileBar) Update(current int64) {
	if f.bar == nil {
		return
	}

	now := time.Now()
	elapsed := now.Sub(f.lastUpdate)
	const updateInterval = 300 * time.Millisecond

	if elapsed >= updateInterval {
		f.bar.EwmaIncrBy(int(current-f.lastBytes), elapsed)
		f.lastBytes = current
		f.lastUpdate = now
	}
}

// Complete marks the file upload as finished and prints a one-line summary
// above the remaining bars.
func (f *FileBar) Complete(err error) {
	elapsed := time.Since(f.startTime)

	if err == nil {
		if f.bar != nil {
			f.bar.SetCurrent(f.size)
			f.bar.SetTotal(f.size, true)
		}
		msg := fmt.Sprintf("✓ %s (sample %s, %.1f MiB, %s)\n",
			truncatePath(f.filepath, 2),
			f.sample,
			float64(f.size)/(1024*1024),
			elapsed.Round(time.Second))
		f.write(msg)
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		msg := fmt.Sprintf("✗ %s (sample %s): %v\n",
			truncatePath(f.filepath, 2), f.sample, err)
		f.write(msg)
	}

	atomic.AddInt32(&f.ui.completed, 1)
}

func (f *FileBar) write(msg string) {
	if f.ui.isTerminal && f.ui.progress != nil {
		f.ui.progress.Write([]byte(msg))
	} else {
		fmt.Fprint(os.Stderr, msg)
	}
}

// Wait blocks until all progress bars have rendered their final state.
func (u *UploadUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// LogWriter returns a writer that safely prints above the active bars.
func (u *UploadUI) LogWriter() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// Reporter returns a Reporter driving a single file bar, so callers that
// stream through a progress reader can feed this view.
func (f *FileBar) Reporter() Reporter {
	return &fileBarReporter{fb: f}
}

type fileBarReporter struct {
	fb *FileBar
}

func (r *fileBarReporter) Start(total int64, description string) {}

func (r *fileBarReporter) Update(current int64) {
	r.fb.Update(current)
}

func (r *fileBarReporter) Finish() {}

func (r *fileBarReporter) SetDescription(desc string) {}

// truncatePath shows only the last n components of a path.
func truncatePath(path string, n int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= n {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-n:], "/")
}
