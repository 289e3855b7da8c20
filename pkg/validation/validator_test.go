package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"present"`
	Email string `json:"email" validate:"omitempty,email"`
	Code  string `json:"code" validate:"omitempty,len=4"`
	Age   int    `json:"age" validate:"min=0,max=150"`
	Inner string `validate:"present"`
}

func TestStruct_Valid(t *testing.T) {
	details := Struct(sample{Name: "n", Email: "a@b.co", Code: "abcd", Age: 3, Inner: "x"})
	assert.Nil(t, details)
}

func TestStruct_PresentRejectsBlank(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n"} {
		details := Struct(sample{Name: name, Inner: "x"})
		require.Contains(t, details, "name", "value %q", name)
		assert.Equal(t, "is required", details["name"])
	}
}

func TestStruct_UsesJSONNamesAndFallsBackToFieldName(t *testing.T) {
	details := Struct(sample{Email: "nope", Code: "abc", Age: 200})
	assert.Equal(t, map[string]string{
		"name":  "is required",
		"email": "must be a valid email",
		"code":  "must be exactly 4 characters long",
		"age":   "must be at most 150",
		"Inner": "is required",
	}, details)
}

func TestToDetails(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
}

func TestEngine_IsShared(t *testing.T) {
	assert.Same(t, Engine(), Engine())
}

func TestEngine_RegistersOnlyPresent(t *testing.T) {
	type withAlias struct {
		Name string `validate:"nonzero"`
	}
	// unknown tags panic in validator; only "present" is added to the built-ins
	assert.Panics(t, func() { _ = Engine().Struct(withAlias{}) })
	assert.NotPanics(t, func() { _ = Engine().Struct(sample{Name: "n", Inner: "x"}) })
}
