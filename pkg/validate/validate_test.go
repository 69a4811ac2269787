package validate

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type sample struct {
	Nom   string `json:"nom"   binding:"notblank"`
	Limit int    `form:"limit" binding:"min=1,max=500"`
	Sort  string `form:"sort"  binding:"omitempty,oneof=asc desc"`
}

func TestNotBlank(t *testing.T) {
	Setup()

	err := binding.Validator.ValidateStruct(&sample{Nom: "   ", Limit: 10})
	if err == nil {
		t.Fatal("期望空白标题校验失败")
	}
	if got := Details(err); !strings.Contains(got, "nom") {
		t.Errorf("期望错误详情包含 json 字段名 nom，实际 %s", got)
	}

	if err := binding.Validator.ValidateStruct(&sample{Nom: "Maths", Limit: 10}); err != nil {
		t.Errorf("合法参数不应失败: %v", err)
	}
}

func TestDetails_MultipleFields(t *testing.T) {
	Setup()

	err := binding.Validator.ValidateStruct(&sample{Nom: "", Limit: 501, Sort: "up"})
	got := Details(err)
	for _, want := range []string{"nom", "limit", "sort"} {
		if !strings.Contains(got, want) {
			t.Errorf("期望详情包含 %s，实际 %s", want, got)
		}
	}
}
