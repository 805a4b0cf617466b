package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", BearerToken("Bearer abc123"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("Basic abc123"))
	assert.Equal(t, "", BearerToken("Bearer"))
	assert.Equal(t, "", BearerToken("bearer abc123"))
}
