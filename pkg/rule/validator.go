// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
//
// 校验标签统一使用 `rule:"..."`，与 gin 的 `binding` 标签互不干扰：
// 处理器先用 ShouldBindJSON 解码，再调用 ValidateStruct 执行业务规则.
package rule

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 新建独立的 validator 实例并注册领域规则.
func initValidator() {
	inst = validator.New(validator.WithRequiredStructEnabled())
	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(jsonFieldName)

	registerKitRules(inst)
}

// jsonFieldName 错误信息中优先使用 json 字段名.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}

	if name == "" {
		return fld.Name
	}

	return name
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段名（json 名优先），值为可读错误信息.
type ValidationErrors map[string]string

// Errors 将 ValidateStruct 返回的错误展开为 ValidationErrors；非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))

	for _, fe := range verrs {
		msg := "failed on '" + fe.Tag() + "'"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}

		out[fe.Namespace()] = msg
	}

	return out
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,email").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
