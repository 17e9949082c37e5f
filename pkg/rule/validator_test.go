package rule_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/kitvault/pkg/rule"
)

type contentRequest struct {
	FileName string `json:"fileName" rule:"required,kit_filename"`
	Category string `json:"category" rule:"required,kit_category"`
	Kind     string `json:"kind"     rule:"omitempty,kit_kind"`
	BPM      int    `json:"bpm"      rule:"omitempty,min=20,max=999"`
	Internal string `json:"-"        rule:"omitempty,max=4"`
}

func TestKitFilename(t *testing.T) {
	cases := map[string]bool{
		"loop.wav":         true,
		"Kick 01 (hard).w": true,
		"":                 false,
		".":                false,
		"..":               false,
		"../loop.wav":      false,
		`drums\kick.wav`:   false,
		"drums/kick.wav":   false,
	}

	for name, ok := range cases {
		err := rule.ValidateVar(name, "kit_filename")
		if ok && err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
		}

		if !ok && err == nil {
			t.Errorf("%q: expected rejection", name)
		}
	}
}

func TestKitCategoryAndKind(t *testing.T) {
	for _, c := range []string{"Full Loop", "One-Shot", "MIDI"} {
		if err := rule.ValidateVar(c, "kit_category"); err != nil {
			t.Errorf("category %q rejected: %v", c, err)
		}
	}

	if err := rule.ValidateVar("Drone", "kit_category"); err == nil {
		t.Error("expected unknown category to be rejected")
	}

	if err := rule.ValidateVar("preset", "kit_kind"); err != nil {
		t.Errorf("expected preset to be a valid kind, got %v", err)
	}

	if err := rule.ValidateVar("unknown", "kit_kind"); err == nil {
		t.Error("expected unknown kind to be rejected")
	}
}

// TestErrorsUseJSONNames 错误字典以 json 字段名为键，并附带规则参数.
func TestErrorsUseJSONNames(t *testing.T) {
	if err := rule.ValidateStruct(contentRequest{FileName: "loop.wav", Category: "Full Loop", BPM: 120}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	err := rule.ValidateStruct(contentRequest{FileName: "../loop.wav", Category: "Drone", BPM: 5000, Internal: "too long"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	errs := rule.Errors(err)

	for _, key := range []string{"contentRequest.fileName", "contentRequest.category", "contentRequest.bpm"} {
		if _, ok := errs[key]; !ok {
			t.Errorf("missing %s in %v", key, errs)
		}
	}

	if got := errs["contentRequest.bpm"]; got != "failed on 'max' (999)" {
		t.Errorf("unexpected bpm message %q", got)
	}

	if len(errs) != 4 {
		t.Errorf("expected 4 errors, got %v", errs)
	}
}

func TestErrorsIgnoresOtherErrors(t *testing.T) {
	if errs := rule.Errors(nil); errs != nil {
		t.Errorf("expected nil, got %v", errs)
	}

	if errs := rule.Errors(errors.New("boom")); errs != nil {
		t.Errorf("expected nil, got %v", errs)
	}
}

// TestRegisterValidationAndAlias 调用方可以追加规则与别名.
func TestRegisterValidationAndAlias(t *testing.T) {
	err := rule.RegisterValidation("wav_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return len(name) > 4 && name[len(name)-4:] == ".wav"
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rule.RegisterAlias("loop_file", "kit_filename,wav_name")

	if err := rule.ValidateVar("loop.wav", "loop_file"); err != nil {
		t.Errorf("expected loop.wav to pass, got %v", err)
	}

	for _, bad := range []string{"loop.aif", "x/loop.wav"} {
		if err := rule.ValidateVar(bad, "loop_file"); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}

	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}
