// Package ingest 将组织好的批次提交到导入接口：先更新已有内容，再预签名、直传并登记新文件，
// 最后按需同步默认 Full Loop.
package ingest

import (
	"errors"
	"fmt"
)

// Phase 提交阶段.
type Phase string

const (
	PhaseUpdate   Phase = "update"   // 已有内容的元数据 PUT
	PhasePresign  Phase = "presign"  // 申请上传地址
	PhaseUpload   Phase = "upload"   // 二进制直传
	PhaseRegister Phase = "register" // 新文件元数据 POST
	PhaseDefault  Phase = "default"  // 单独设置默认 Full Loop
)

var (
	// ErrSubmissionFailed 网络或服务端错误导致整次提交失败.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrNoKit 批次没有关联的 kit.
	ErrNoKit = errors.New("batch has no kit id")
)

// SubmitError 提交中的网络或服务端失败，File 为空表示整批请求失败.
// 已完成的直传不会回滚.
type SubmitError struct {
	Phase Phase
	File  string
	Err   error
}

func (e *SubmitError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s: %v", ErrSubmissionFailed, e.Phase, e.Err)
	}

	return fmt.Sprintf("%s: %s %q: %v", ErrSubmissionFailed, e.Phase, e.File, e.Err)
}

func (e *SubmitError) Unwrap() []error { return []error{ErrSubmissionFailed, e.Err} }

func submitError(phase Phase, file string, err error) error {
	var se *SubmitError
	if errors.As(err, &se) {
		return err
	}

	return &SubmitError{Phase: phase, File: file, Err: err}
}
