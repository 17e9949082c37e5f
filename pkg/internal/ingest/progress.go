package ingest

import (
	"maps"
	"sync"
	"sync/atomic"
)

// progressState 不可变的进度快照，每次更新替换整个 map.
type progressState struct {
	files map[int]float64
	total int
}

func (s *progressState) mean() float64 {
	if s.total == 0 {
		return 100
	}

	var sum float64
	for _, v := range s.files {
		sum += v
	}

	return sum / float64(s.total)
}

// Progress 聚合并发上传的进度：整体进度为各文件百分比的平均值.
// 单个文件的进度只增不减，且总在 [0,100] 内.
type Progress struct {
	state    atomic.Pointer[progressState]
	onChange func(percent float64)

	notifyMu sync.Mutex
	notified float64
}

// NewProgress 跟踪 total 个文件，onChange 可为 nil.
// onChange 在上传 goroutine 中串行调用，收到的整体进度只增不减.
func NewProgress(total int, onChange func(percent float64)) *Progress {
	p := &Progress{onChange: onChange, notified: -1}
	p.state.Store(&progressState{files: map[int]float64{}, total: total})

	return p
}

// Update 记录第 idx 个文件的百分比，低于已记录值的更新被忽略，返回整体进度.
func (p *Progress) Update(idx int, percent float64) float64 {
	percent = min(max(percent, 0), 100)

	for {
		cur := p.state.Load()
		if old, ok := cur.files[idx]; ok && percent <= old {
			return cur.mean()
		}

		next := &progressState{files: maps.Clone(cur.files), total: cur.total}
		next.files[idx] = percent

		if p.state.CompareAndSwap(cur, next) {
			overall := next.mean()
			p.notify(overall)

			return overall
		}
	}
}

// notify 丢弃比已通知值更旧的整体进度.
func (p *Progress) notify(overall float64) {
	if p.onChange == nil {
		return
	}

	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	if overall <= p.notified {
		return
	}

	p.notified = overall
	p.onChange(overall)
}

// Bytes 按已发送字节更新第 idx 个文件.
func (p *Progress) Bytes(idx int, sent, total int64) float64 {
	if total <= 0 {
		return p.Percent()
	}

	return p.Update(idx, float64(sent)*100/float64(total))
}

// Percent 当前整体进度.
func (p *Progress) Percent() float64 { return p.state.Load().mean() }

// File 第 idx 个文件的进度.
func (p *Progress) File(idx int) float64 { return p.state.Load().files[idx] }
