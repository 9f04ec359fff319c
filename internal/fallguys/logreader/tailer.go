package logreader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/FallGuys-Companion/internal/metrics"
)

const (
	sessionStartMarker = "[GlobalGameStateClient].PreStart called at "
	sessionStartEnd    = "  UTC"
	clientAddressMark  = "Client address: "
)

// summaryStartMarkers begin a multi-line episode summary block.
var summaryStartMarkers = []string{"[CompletedEpisodeDto]", "[Episode Summary]"}

// sessionDateLayouts are the layouts the client has been seen to use for the session start timestamp.
var sessionDateLayouts = []string{
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"02/01/2006 15:04:05",
	time.RFC3339,
}

// Handler receives the tailer's out-of-band notifications.
type Handler interface {
	// SessionDate is called whenever a session start marker is read.
	SessionDate(date time.Time)
	// Error is called when a poll fails. The tailer keeps running.
	Error(err error)
}

// TailerConfig holds configuration for a Tailer.
type TailerConfig struct {
	// Directory containing Player.log and Player-prev.log.
	Directory string

	// FileName is the live log's file name.
	// Default: Player.log
	FileName string

	// Interval is how long to wait before polling again when no new data is available.
	// Default: 500ms
	Interval time.Duration

	// UseFileEvents wakes the tailer on filesystem notifications in addition to the ticker.
	UseFileEvents bool

	// Buffer receives the parsed lines. Required.
	Buffer *LineBuffer

	Handler Handler
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Tailer follows Player-prev.log to its end once and then follows Player.log,
// appending parsed lines to a LineBuffer.
type Tailer struct {
	livePath      string
	prevPath      string
	directory     string
	interval      time.Duration
	useFileEvents bool
	buffer        *LineBuffer
	handler       Handler
	metrics       *metrics.Collector
	logger        *zap.Logger

	mu        sync.Mutex
	path      string
	offset    int64
	completed bool
	date      time.Time
}

// NewTailer creates a new Tailer with the given configuration.
func NewTailer(config *TailerConfig) (*Tailer, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if config.Buffer == nil {
		return nil, fmt.Errorf("buffer cannot be nil")
	}

	fileName := config.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}
	interval := config.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	live, prev := LogPaths(config.Directory, fileName)

	return &Tailer{
		livePath:      live,
		prevPath:      prev,
		directory:     config.Directory,
		interval:      interval,
		useFileEvents: config.UseFileEvents,
		buffer:        config.Buffer,
		handler:       config.Handler,
		metrics:       config.Metrics,
		logger:        logger.Named("tailer"),
		path:          prev,
	}, nil
}

// Run polls until ctx is cancelled. Errors are reported to the handler and do
// not stop the loop.
func (t *Tailer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var wake <-chan struct{}
	if t.useFileEvents {
		waker, err := NewWaker(t.directory, []string{t.livePath, t.prevPath}, t.logger)
		if err != nil {
			t.logger.Warn("file events unavailable, polling only", zap.Error(err))
		} else {
			defer func() {
				_ = waker.Close() //nolint:errcheck // Ignore error on cleanup
			}()
			wake = waker.C()
		}
	}

	t.logger.Debug("tailer started", zap.String("path", t.ActivePath()))

	for {
		for ctx.Err() == nil {
			progressed, err := t.Poll()
			if err != nil {
				t.metrics.RecordTailError()
				t.logger.Warn("poll failed", zap.String("path", t.ActivePath()), zap.Error(err))
				if t.handler != nil {
					t.handler.Error(err)
				}
				break
			}
			if !progressed {
				break
			}
		}

		select {
		case <-ctx.Done():
			t.logger.Debug("tailer stopped")
			return
		case <-ticker.C:
		case <-wake:
		}
	}
}

// ActivePath returns the path of the file currently being followed.
func (t *Tailer) ActivePath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

// Offset returns the committed read position in the active file.
func (t *Tailer) Offset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// Completed reports whether the tailer has switched to the live log.
func (t *Tailer) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Poll reads whatever complete lines are available in the active file and
// appends them to the buffer. It reports whether any progress was made, in
// which case it can be called again immediately.
func (t *Tailer) Poll() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", t.path, err)
	}

	if info.Size() < t.offset {
		t.logger.Info("log file recreated, rewinding",
			zap.String("path", t.path),
			zap.Int64("offset", t.offset),
			zap.Int64("size", info.Size()))
		t.offset = 0
		t.metrics.RecordRotation()
		return true, nil
	}

	final := !t.completed
	if info.Size() == t.offset && !final {
		return false, nil
	}

	result, err := t.read(final)
	progressed := result.committed != t.offset
	t.offset = result.committed

	if len(result.lines) > 0 {
		t.buffer.Append(result.lines...)
	}
	t.metrics.RecordRead(result.read, len(result.lines))

	for _, date := range result.sessionDates {
		if t.handler != nil {
			t.handler.SessionDate(date)
		}
	}

	if err != nil {
		return progressed, err
	}

	// Player-prev.log is no longer written to, so its first end of file is the last.
	if final {
		t.logger.Info("switching to live log",
			zap.String("from", t.path),
			zap.String("to", t.livePath),
			zap.Int("lines", result.read))
		t.completed = true
		t.path = t.livePath
		t.offset = 0
		t.metrics.RecordFileSwitch()
		return true, nil
	}

	return progressed, nil
}

// readResult is the outcome of one pass over the active file.
type readResult struct {
	lines        []*LogLine
	sessionDates []time.Time
	committed    int64
	read         int
}

// read reads from the committed offset to the end of the active file.
//
// The committed offset only moves past lines that are fully handled. A summary
// block still open at end of file is not committed, and the reference date is
// restored to its value before the block, so the block is read again from its
// first line on the next poll. When final is set the file is known not to grow
// and any open block or unterminated last line is flushed instead.
func (t *Tailer) read(final bool) (readResult, error) {
	result := readResult{committed: t.offset}

	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}
		return result, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return result, fmt.Errorf("seek to position %d: %w", t.offset, err)
	}

	var (
		reader   = bufio.NewReader(file)
		pos      = t.offset
		merge    *LogLine
		mergeBuf strings.Builder
		snapshot time.Time
		mark     int
	)

	flushMerge := func() {
		merge.Text = mergeBuf.String()
		result.lines = append(result.lines, merge)
		merge = nil
		mergeBuf.Reset()
	}

	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			err = fmt.Errorf("read %s: %w", t.path, readErr)
			break
		}
		if raw == "" || (readErr != nil && !final) {
			// Nothing left, or an unterminated line the client is still writing.
			break
		}

		start := pos
		pos += int64(len(raw))
		result.read++
		text := strings.TrimRight(raw, "\r\n")
		line := NewLogLine(text)

		if merge != nil {
			if !line.IsValid() {
				mergeBuf.WriteByte('\n')
				mergeBuf.WriteString(text)
				if readErr != nil {
					break
				}
				continue
			}
			flushMerge()
			result.committed = start
		}

		if !line.IsValid() {
			if line.Find(clientAddressMark) != -1 {
				result.lines = append(result.lines, line)
			}
			result.committed = pos
			if readErr != nil {
				break
			}
			continue
		}

		before, dates := t.date, len(result.sessionDates)
		if str := line.Retrieve(sessionStartMarker, sessionStartEnd); str != "" {
			date, err := parseSessionDate(str)
			if err != nil {
				t.logger.Warn("unreadable session date", zap.String("value", str), zap.Error(err))
			} else {
				t.date = date
				result.sessionDates = append(result.sessionDates, date)
			}
		}

		if !t.date.IsZero() {
			t.date = advanceDate(t.date, line.Time)
			line.Date = t.date
		}

		if isSummaryStart(line) {
			merge = line
			mergeBuf.WriteString(text)
			snapshot, mark = before, dates
		} else {
			result.lines = append(result.lines, line)
			result.committed = pos
		}

		if readErr != nil {
			break
		}
	}

	if merge != nil {
		if final && err == nil {
			flushMerge()
			result.committed = pos
		} else {
			t.date = snapshot
			result.sessionDates = result.sessionDates[:mark]
		}
	}

	return result, err
}

func isSummaryStart(line *LogLine) bool {
	for _, marker := range summaryStartMarkers {
		if line.Find(marker) != -1 {
			return true
		}
	}
	return false
}

// advanceDate moves current forward to the given time of day, rolling over to
// the next day when the time of day went backwards. The result is never
// earlier than current.
func advanceDate(current time.Time, tod time.Duration) time.Time {
	y, m, d := current.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, current.Location())

	if current.Sub(midnight)/time.Second > tod/time.Second {
		midnight = midnight.AddDate(0, 0, 1)
	}

	next := midnight.Add(tod)
	if next.Before(current) {
		return current
	}
	return next
}

// parseSessionDate parses the session start timestamp as UTC.
func parseSessionDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range sessionDateLayouts {
		if date, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return date.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized session date %q", value)
}
