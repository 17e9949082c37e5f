package kit

// DefaultLoopSelector 维护批次中唯一的默认 Full Loop.
//
// 规则：
//   - 没有默认时加入（或改分类为）Full Loop 的文件自动当选；
//   - 显式设置时清除其它文件的标记并标记目标；
//   - 删除当前默认只会清空默认，不会静默重新选举，需要调用方显式选择.
type DefaultLoopSelector struct {
	id FileID
}

// Current 当前默认文件 ID，未选择时为空.
func (s *DefaultLoopSelector) Current() FileID {
	return s.id
}

// Restore 以已持久化的默认值初始化，目标不是 Full Loop 时忽略.
func (s *DefaultLoopSelector) Restore(records []FileRecord, id FileID) {
	s.id = ""

	for i := range records {
		if records[i].ID == id && records[i].IsFullLoop() {
			s.id = id
		}
	}

	s.sync(records)
}

// Set 显式将某个 Full Loop 设为默认.
func (s *DefaultLoopSelector) Set(records []FileRecord, id FileID) error {
	idx := indexOf(records, id)
	if idx < 0 {
		return ErrRecordNotFound
	}

	if !records[idx].IsFullLoop() {
		return ErrNotFullLoop
	}

	s.id = id
	s.sync(records)

	return nil
}

// Observe 在文件加入或分类变化后调用：当前默认不再是 Full Loop 时清空；
// 没有默认且该文件是 Full Loop 时自动当选.
func (s *DefaultLoopSelector) Observe(records []FileRecord, id FileID) {
	idx := indexOf(records, id)
	if idx < 0 {
		return
	}

	if s.id == id && !records[idx].IsFullLoop() {
		s.id = ""
	}

	if s.id == "" && records[idx].IsFullLoop() {
		s.id = id
	}

	s.sync(records)
}

// Removed 在文件被删除后调用.
func (s *DefaultLoopSelector) Removed(records []FileRecord, id FileID) {
	if s.id == id {
		s.id = ""
	}

	s.sync(records)
}

// sync 让每个文件的 IsDefaultFullLoop 与选择保持一致，保证至多一个为 true.
func (s *DefaultLoopSelector) sync(records []FileRecord) {
	for i := range records {
		records[i].IsDefaultFullLoop = s.id != "" && records[i].ID == s.id
	}
}

func indexOf(records []FileRecord, id FileID) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}

	return -1
}
