package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/pkg/validator"
)

func TestValidate(t *testing.T) {
	type S struct {
		Name string `validate:"required"`
	}

	t.Run("nil input", func(t *testing.T) {
		assert.Error(t, validator.Validate(nil))
	})

	t.Run("missing required field", func(t *testing.T) {
		assert.Error(t, validator.Validate(S{}))
	})

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, validator.Validate(S{Name: "x"}))
	})
}

func TestVar(t *testing.T) {
	assert.NoError(t, validator.Var("http://example.com/license", "omitempty,url,max=255"))
	assert.Error(t, validator.Var("not a url", "omitempty,url"))
	assert.Error(t, validator.Var("quay!", "oneof=dockerhub quay"))
}
