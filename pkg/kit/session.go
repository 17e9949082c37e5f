package kit

import "errors"

// Session 组合同一文件集合上的两条独立流程：组织/提交（Batch）与配对（PairingEngine），
// 并负责试听资源的生命周期.
type Session struct {
	Batch    *Batch
	Pairing  *PairingEngine
	Previews *PreviewRegistry
}

// NewSession 创建会话，默认配对类型为 "Loop + MIDI".
func NewSession(b *Batch, opener PreviewOpener) *Session {
	if b == nil {
		b = NewBatch()
	}

	return &Session{
		Batch:    b,
		Pairing:  NewPairingEngine(b, PairLoopMIDI),
		Previews: NewPreviewRegistry(opener),
	}
}

// Add 加入文件并为接受的文件准备试听资源.
func (s *Session) Add(inputs []FileInput) (AddResult, error) {
	res := s.Batch.Add(inputs)

	var errs []error

	for _, rec := range res.Added {
		if _, err := s.Previews.Acquire(rec); err != nil {
			errs = append(errs, err)
		}
	}

	return res, errors.Join(errs...)
}

// Remove 删除文件：释放试听资源、移出配对选择并解散包含它的配对.
func (s *Session) Remove(id FileID) ([]string, error) {
	if err := s.Batch.Remove(id); err != nil {
		return nil, err
	}

	dissolved := s.Pairing.Forget(id)
	_, err := s.Previews.Release(id)

	return dissolved, err
}

// Close 释放全部试听资源.
func (s *Session) Close() error {
	return s.Previews.Close()
}
