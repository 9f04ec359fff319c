package logreader

import (
	"fmt"
	"strings"
	"time"
)

// timestampLength is the length of the "HH:MM:SS.fff" prefix every client line starts with.
const timestampLength = 12

// LogLine represents a line from the Fall Guys Player.log file.
// Lines following an episode summary header are merged into a single LogLine,
// in which case Text spans several physical lines.
type LogLine struct {
	Time  time.Duration // Time of day parsed from the timestamp prefix
	Date  time.Time     // Absolute date, zero until a session date anchor has been seen
	Text  string        // The raw line (or merged block)
	valid bool
}

// NewLogLine creates a LogLine from a raw line of the log.
// A line is valid when it starts with the client's "HH:MM:SS.fff:" timestamp.
func NewLogLine(text string) *LogLine {
	l := &LogLine{Text: text}

	if strings.IndexByte(text, ':') != 2 ||
		indexByteFrom(text, ':', 3) != 5 ||
		indexByteFrom(text, ':', 6) != timestampLength {
		return l
	}

	tod, ok := parseTimeOfDay(text[:timestampLength])
	if !ok {
		return l
	}
	l.Time = tod
	l.valid = true
	return l
}

// IsValid reports whether the line carries a timestamp prefix.
func (l *LogLine) IsValid() bool {
	return l.valid
}

// Find returns the index of the first case-insensitive occurrence of marker, or -1.
func (l *LogLine) Find(marker string) int {
	return indexFold(l.Text, marker, 0)
}

// FindLast returns the index of the last case-insensitive occurrence of marker, or -1.
func (l *LogLine) FindLast(marker string) int {
	return lastIndexFold(l.Text, marker, len(l.Text))
}

// FindFrom returns the index of the first occurrence of marker at or after start, or -1.
func (l *LogLine) FindFrom(marker string, start int) int {
	return indexFold(l.Text, marker, start)
}

// FindLastFrom searches backwards from start and returns the index of the last
// occurrence of marker that lies entirely within Text[:start+1], or -1.
func (l *LogLine) FindLastFrom(marker string, start int) int {
	return lastIndexFold(l.Text, marker, start+1)
}

// Retrieve returns the text following begin. When end is not empty, only the text
// up to the next occurrence of end is returned. An empty string means either
// marker was not found.
func (l *LogLine) Retrieve(begin, end string) string {
	index := l.Find(begin)
	if index == -1 {
		return ""
	}

	start := index + len(begin)
	if end == "" {
		return l.Text[start:]
	}

	stop := indexFold(l.Text, end, start)
	if stop == -1 {
		return ""
	}
	return l.Text[start:stop]
}

// RetrieveLast is the backwards counterpart of Retrieve. It locates the last
// occurrence of begin and returns the text before it: everything up to the start
// of the line when end is empty, otherwise everything after the closest
// preceding occurrence of end.
func (l *LogLine) RetrieveLast(begin, end string) string {
	index := l.FindLast(begin)
	if index == -1 {
		return ""
	}

	if end == "" {
		return l.Text[:index]
	}

	start := lastIndexFold(l.Text, end, index)
	if start == -1 {
		return ""
	}
	return l.Text[start+len(end) : index]
}

func (l *LogLine) String() string {
	return fmt.Sprintf("%v: %s", l.Time, l.Text)
}

// parseTimeOfDay parses "HH:MM:SS.fff".
func parseTimeOfDay(s string) (time.Duration, bool) {
	if len(s) != timestampLength || s[2] != ':' || s[5] != ':' || s[8] != '.' {
		return 0, false
	}

	hours, ok := atoiDigits(s[0:2])
	if !ok || hours > 23 {
		return 0, false
	}
	minutes, ok := atoiDigits(s[3:5])
	if !ok || minutes > 59 {
		return 0, false
	}
	seconds, ok := atoiDigits(s[6:8])
	if !ok || seconds > 59 {
		return 0, false
	}
	millis, ok := atoiDigits(s[9:12])
	if !ok {
		return 0, false
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, true
}

func atoiDigits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func indexByteFrom(s string, c byte, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.IndexByte(s[from:], c)
	if i == -1 {
		return -1
	}
	return i + from
}

// indexFold is a case-insensitive strings.Index that starts searching at from.
func indexFold(s, substr string, from int) int {
	if from < 0 {
		from = 0
	}
	n := len(substr)
	if n == 0 {
		if from <= len(s) {
			return from
		}
		return -1
	}

	first, ascii := lowerASCII(substr[0])
	for i := from; i+n <= len(s); i++ {
		if ascii {
			if c, _ := lowerASCII(s[i]); c != first {
				continue
			}
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// lastIndexFold returns the start of the last case-insensitive match of substr
// that ends at or before end.
func lastIndexFold(s, substr string, end int) int {
	if end > len(s) {
		end = len(s)
	}
	n := len(substr)
	for i := end - n; i >= 0; i-- {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func lowerASCII(c byte) (byte, bool) {
	if c >= 0x80 {
		return c, false
	}
	if 'A' <= c && c <= 'Z' {
		c += 'a' - 'A'
	}
	return c, true
}
