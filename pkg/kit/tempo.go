package kit

import "time"

const (
	// DefaultTapWindow 参与计算的最近敲击次数.
	DefaultTapWindow = 8
	// DefaultTapReset 两次敲击间隔超过该值时重新开始计数.
	DefaultTapReset = 2 * time.Second
)

// Tapper 敲击测速，使用定长环形缓冲保存最近的敲击时间，由调用方持有.
type Tapper struct {
	taps  []time.Time
	next  int
	count int
	reset time.Duration
}

// NewTapper 创建敲击测速器，window < 2 时使用默认窗口.
func NewTapper(window int, reset time.Duration) *Tapper {
	if window < 2 {
		window = DefaultTapWindow
	}

	if reset <= 0 {
		reset = DefaultTapReset
	}

	return &Tapper{taps: make([]time.Time, window), reset: reset}
}

// Tap 记录一次敲击，返回当前 BPM；不足两次敲击时返回 0.
func (t *Tapper) Tap(at time.Time) float64 {
	if t.count > 0 && at.Sub(t.last()) > t.reset {
		t.Reset()
	}

	t.taps[t.next] = at
	t.next = (t.next + 1) % len(t.taps)

	if t.count < len(t.taps) {
		t.count++
	}

	return t.BPM()
}

// BPM 根据缓冲中的敲击计算平均间隔对应的 BPM.
func (t *Tapper) BPM() float64 {
	if t.count < 2 {
		return 0
	}

	oldest := t.taps[(t.next-t.count+len(t.taps))%len(t.taps)]
	span := t.last().Sub(oldest)

	if span <= 0 {
		return 0
	}

	interval := span.Seconds() / float64(t.count-1)

	return 60 / interval
}

// Count 缓冲中的敲击次数.
func (t *Tapper) Count() int { return t.count }

// Reset 清空缓冲.
func (t *Tapper) Reset() {
	t.next = 0
	t.count = 0
}

func (t *Tapper) last() time.Time {
	return t.taps[(t.next-1+len(t.taps))%len(t.taps)]
}
