//go:build !cpfrelaxed

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCPF_DefaultBuildIsStrict(t *testing.T) {
	assert.Equal(t, PolicyStrict, ActiveCPFPolicy())
	assert.True(t, IsValidCPF("529.982.247-25"))
	assert.False(t, IsValidCPF("529.982.247-26"))
	assert.False(t, IsValidCPF("111.111.111-11"))
}
