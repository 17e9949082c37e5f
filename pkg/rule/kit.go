package rule

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/kitvault/pkg/kit"
)

// 领域规则标签.
const (
	TagKitCategory = "kit_category" // 分类名称属于内置分类模型
	TagKitFilename = "kit_filename" // 不含路径分隔符的文件名
	TagKitKind     = "kit_kind"     // 已知的文件类型（不含 Unknown）
)

func registerKitRules(v *validator.Validate) {
	model := kit.DefaultCategoryModel()

	_ = v.RegisterValidation(TagKitCategory, func(fl validator.FieldLevel) bool {
		_, ok := model.Category(fl.Field().String())
		return ok
	})

	_ = v.RegisterValidation(TagKitFilename, func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" || name == "." || name == ".." {
			return false
		}

		return !strings.ContainsAny(name, `/\`)
	})

	_ = v.RegisterValidation(TagKitKind, func(fl validator.FieldLevel) bool {
		return kit.Kind(fl.Field().String()).Valid()
	})
}
