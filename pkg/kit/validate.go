package kit

// Requirement 文件按其分类需要满足的字段集合.
type Requirement struct {
	Group   bool
	Subtype bool
}

// RequirementFor 返回文件的完整性要求：
//
//	Full Loop        -> 仅 category
//	MIDI / Preset    -> category + subtype
//	其它（One-Shot、Sample Loop）-> category + group + subtype
func RequirementFor(r *FileRecord) Requirement {
	switch {
	case r.Category == CategoryFullLoop:
		return Requirement{}
	case r.Kind == KindMIDI, r.Kind == KindPreset:
		return Requirement{Subtype: true}
	default:
		return Requirement{Group: true, Subtype: true}
	}
}

// MissingFields 返回文件缺失的必填字段，全部满足时返回 nil.
func MissingFields(r *FileRecord) []MissingField {
	if r.Category == "" {
		return []MissingField{FieldCategory}
	}

	req := RequirementFor(r)

	var missing []MissingField

	if req.Group && r.Group == "" {
		missing = append(missing, FieldGroup)
	}

	if req.Subtype && r.Subtype == "" {
		missing = append(missing, FieldSubtype)
	}

	return missing
}

// IsOrganized 单个文件是否满足其分类的完整性要求.
func IsOrganized(r *FileRecord) bool {
	return len(MissingFields(r)) == 0
}

// Incomplete 列出所有未完成的文件.
func Incomplete(records []FileRecord) []IncompleteRecord {
	var out []IncompleteRecord

	for i := range records {
		if missing := MissingFields(&records[i]); len(missing) > 0 {
			out = append(out, IncompleteRecord{ID: records[i].ID, Name: records[i].Name, Missing: missing})
		}
	}

	return out
}

// AllOrganized 每个文件都满足各自的要求.
func AllOrganized(records []FileRecord) bool {
	for i := range records {
		if !IsOrganized(&records[i]) {
			return false
		}
	}

	return true
}

// HasFullLoop 是否至少存在一个 Full Loop.
func HasFullLoop(records []FileRecord) bool {
	for i := range records {
		if records[i].IsFullLoop() {
			return true
		}
	}

	return false
}

// CheckSubmittable 本地提交前置检查：已组织、含 Full Loop、已选默认.
// 返回的错误可用 errors.Is 与 ErrIncompleteOrganization、ErrMissingFullLoop、ErrMissingDefault 比较.
func CheckSubmittable(records []FileRecord, defaultID FileID) error {
	if bad := Incomplete(records); len(bad) > 0 {
		return &IncompleteOrganizationError{Records: bad}
	}

	if !HasFullLoop(records) {
		return ErrMissingFullLoop
	}

	if defaultID == "" {
		return ErrMissingDefault
	}

	for i := range records {
		if records[i].ID == defaultID && records[i].IsFullLoop() {
			return nil
		}
	}

	return ErrMissingDefault
}
