// Package validate 注册自定义校验规则并格式化校验错误
//
// 校验器挂在 gin 的 binding.Validator 上，ShouldBind* 与 Struct 共用同一个实例。
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const notBlankTag = "notblank"

var once sync.Once

// Setup 注册自定义规则，并让错误信息使用 json / form 标签名
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation(notBlankTag, notBlank)
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// Details 将绑定 / 校验错误转为 "字段: 规则" 列表，供响应的 details 字段使用
func Details(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describe(fe))
	}
	return strings.Join(parts, "; ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", notBlankTag:
		return fmt.Sprintf("%s: 不能为空", fe.Field())
	case "min":
		return fmt.Sprintf("%s: 不能小于 %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: 不能大于 %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: 取值须为 [%s] 之一", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: 校验规则 %s 未通过", fe.Field(), fe.Tag())
	}
}
