package transcode

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// progress turns ffmpeg output into a fraction of the input duration.
//
// The total comes from the "Duration: HH:MM:SS.ss" banner on stderr; the
// position from out_time_us (or out_time_ms, which ffmpeg also reports in
// microseconds) on the -progress stream.
type progress struct {
	mu     sync.Mutex
	total  time.Duration
	last   float64
	report func(float64)
}

func newProgress(report func(float64)) *progress {
	return &progress{last: -1, report: report}
}

func (p *progress) feed(line string) {
	line = strings.TrimSpace(line)

	if rest, ok := strings.CutPrefix(line, "Duration:"); ok {
		clock, _, _ := strings.Cut(strings.TrimSpace(rest), ",")
		if d, ok := parseClock(clock); ok {
			p.mu.Lock()
			if p.total == 0 {
				p.total = d
			}
			p.mu.Unlock()
		}
		return
	}

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		p.mu.Lock()
		total := p.total
		p.mu.Unlock()
		if total <= 0 {
			return
		}
		p.emit(float64(time.Duration(us)*time.Microsecond) / float64(total))
	case "progress":
		if value == "end" {
			p.emit(1)
		}
	}
}

func (p *progress) finish() { p.emit(1) }

// emit reports f clamped to [0, 1], skipping values that do not advance.
func (p *progress) emit(f float64) {
	f = min(max(f, 0), 1)
	p.mu.Lock()
	if f <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = f
	report := p.report
	p.mu.Unlock()
	if report != nil {
		report(f)
	}
}

// parseClock parses HH:MM:SS(.frac).
func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || sec < 0 {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	return d, true
}
