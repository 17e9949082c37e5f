package kit

import (
	"errors"
	"net/url"
	"path/filepath"
	"sync"
)

// PreviewOpener 为文件创建本地试听资源，返回资源地址以及对应的释放函数.
type PreviewOpener func(rec FileRecord) (string, func() error, error)

// FilePreviewOpener 默认实现：已存在的内容使用 stream URL，新文件使用 file:// 地址，无需释放.
func FilePreviewOpener(rec FileRecord) (string, func() error, error) {
	if rec.StreamURL != "" {
		return rec.StreamURL, nil, nil
	}

	if rec.Path == "" {
		return "", nil, nil
	}

	abs, err := filepath.Abs(rec.Path)
	if err != nil {
		return "", nil, err
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	return u.String(), nil, nil
}

type previewEntry struct {
	handle  string
	release func() error
}

// PreviewRegistry 跟踪每个文件的试听资源. 每个资源只释放一次：
// 删除文件或整体关闭时释放，重复释放是空操作且不会重复计数.
type PreviewRegistry struct {
	mu      sync.Mutex
	open    PreviewOpener
	entries map[FileID]previewEntry
	closed  bool
}

// NewPreviewRegistry 创建注册表，opener 为 nil 时使用 FilePreviewOpener.
func NewPreviewRegistry(opener PreviewOpener) *PreviewRegistry {
	if opener == nil {
		opener = FilePreviewOpener
	}

	return &PreviewRegistry{open: opener, entries: make(map[FileID]previewEntry)}
}

// Acquire 返回文件的试听资源，已存在时直接复用.
func (p *PreviewRegistry) Acquire(rec FileRecord) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", errors.New("preview registry closed")
	}

	if e, ok := p.entries[rec.ID]; ok {
		return e.handle, nil
	}

	handle, release, err := p.open(rec)
	if err != nil {
		return "", err
	}

	p.entries[rec.ID] = previewEntry{handle: handle, release: release}

	return handle, nil
}

// Release 释放单个文件的资源，返回是否真的释放了.
func (p *PreviewRegistry) Release(id FileID) (bool, error) {
	p.mu.Lock()
	e, ok := p.entries[id]
	delete(p.entries, id)
	p.mu.Unlock()

	if !ok {
		return false, nil
	}

	if e.release != nil {
		return true, e.release()
	}

	return true, nil
}

// Active 当前持有的资源数.
func (p *PreviewRegistry) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries)
}

// Close 释放剩余全部资源，之后不能再 Acquire.
func (p *PreviewRegistry) Close() error {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[FileID]previewEntry)
	p.closed = true
	p.mu.Unlock()

	var errs []error

	for _, e := range entries {
		if e.release != nil {
			if err := e.release(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
