package kit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrClassificationAmbiguous 文件的扩展名与 MIME 均无法识别.
	ErrClassificationAmbiguous = errors.New("file kind could not be determined")
	// ErrDuplicateFilename 批次内已存在同名文件.
	ErrDuplicateFilename = errors.New("duplicate file name")
	// ErrIncompleteOrganization 存在缺少必填字段的文件.
	ErrIncompleteOrganization = errors.New("kit is not fully organized")
	// ErrMissingFullLoop 批次内没有 Full Loop 文件.
	ErrMissingFullLoop = errors.New("kit has no full loop")
	// ErrMissingDefault 尚未选择默认 Full Loop.
	ErrMissingDefault = errors.New("default full loop is required")
	// ErrRecordNotFound 文件不在批次中.
	ErrRecordNotFound = errors.New("file not found in batch")
	// ErrInvalidCategory 分类对该类型的文件不可用.
	ErrInvalidCategory = errors.New("category not allowed for file kind")
	// ErrInvalidGroup 分组不属于当前分类.
	ErrInvalidGroup = errors.New("sound group not allowed for category")
	// ErrInvalidSubtype subtype 不属于当前分类/分组.
	ErrInvalidSubtype = errors.New("subtype not allowed for selection")
	// ErrNotFullLoop 只有 Full Loop 可以被设为默认.
	ErrNotFullLoop = errors.New("only a full loop can be the default")

	// ErrPairingTypeMismatch 文件类型不在配对类型要求中.
	ErrPairingTypeMismatch = errors.New("file kind not allowed by pair type")
	// ErrPairingDuplicateKind 选择中已有同类型文件.
	ErrPairingDuplicateKind = errors.New("a file of this kind is already selected")
	// ErrPairingMissingKinds 选择未覆盖全部必需类型.
	ErrPairingMissingKinds = errors.New("selection is missing required kinds")
	// ErrAlreadyPaired 文件已属于某个已提交的配对.
	ErrAlreadyPaired = errors.New("file already belongs to a pair")
	// ErrUnknownPairType 未知的配对类型.
	ErrUnknownPairType = errors.New("unknown pair type")
	// ErrPairNotFound 配对不存在.
	ErrPairNotFound = errors.New("pair not found")
)

// DuplicateFilenameError 列出添加时被拒绝的重名文件.
type DuplicateFilenameError struct {
	Names []string
}

func (e *DuplicateFilenameError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateFilename, strings.Join(e.Names, ", "))
}

func (e *DuplicateFilenameError) Unwrap() error { return ErrDuplicateFilename }

// UnclassifiedError 列出无法识别类型的文件.
type UnclassifiedError struct {
	Names []string
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrClassificationAmbiguous, strings.Join(e.Names, ", "))
}

func (e *UnclassifiedError) Unwrap() error { return ErrClassificationAmbiguous }

// MissingField 未满足的字段.
type MissingField string

const (
	FieldCategory MissingField = "category"
	FieldGroup    MissingField = "group"
	FieldSubtype  MissingField = "subtype"
)

// IncompleteRecord 某个文件缺失的字段.
type IncompleteRecord struct {
	ID      FileID         `json:"id"`
	Name    string         `json:"name"`
	Missing []MissingField `json:"missing"`
}

// IncompleteOrganizationError 指出哪些文件缺少哪些字段.
type IncompleteOrganizationError struct {
	Records []IncompleteRecord
}

func (e *IncompleteOrganizationError) Error() string {
	parts := make([]string, 0, len(e.Records))

	for _, r := range e.Records {
		fields := make([]string, 0, len(r.Missing))
		for _, f := range r.Missing {
			fields = append(fields, string(f))
		}

		parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, strings.Join(fields, ", ")))
	}

	return fmt.Sprintf("%s: %s", ErrIncompleteOrganization, strings.Join(parts, "; "))
}

func (e *IncompleteOrganizationError) Unwrap() error { return ErrIncompleteOrganization }

// PairingMissingKindsError 提交配对时缺失的类型.
type PairingMissingKindsError struct {
	PairType string
	Missing  []Kind
}

func (e *PairingMissingKindsError) Error() string {
	kinds := make([]string, 0, len(e.Missing))
	for _, k := range e.Missing {
		kinds = append(kinds, string(k))
	}

	sort.Strings(kinds)

	return fmt.Sprintf("%s for %q: %s", ErrPairingMissingKinds, e.PairType, strings.Join(kinds, ", "))
}

func (e *PairingMissingKindsError) Unwrap() error { return ErrPairingMissingKinds }
