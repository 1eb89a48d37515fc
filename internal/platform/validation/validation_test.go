package validation

import "testing"

type sample struct {
	Name string `validate:"required"`
	Mime string `validate:"omitempty,oneof=image/png image/jpeg image/webp"`
}

func TestValidate(t *testing.T) {
	v := New()

	if err := v.Validate(&sample{Name: "ok"}); err != nil {
		t.Errorf("unexpected error for valid struct: %v", err)
	}
	if err := v.Validate(&sample{}); err == nil {
		t.Error("expected error for missing required field")
	}
	if err := v.Validate(&sample{Name: "ok", Mime: "image/gif"}); err == nil {
		t.Error("expected error for mime outside the allowed set")
	}
	if err := v.Validate(&sample{Name: "ok", Mime: "image/webp"}); err != nil {
		t.Errorf("unexpected error for allowed mime: %v", err)
	}
}
