package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactMasksSecrets(t *testing.T) {
	in := `{"email":"a@b.c","password":"hunter2","refreshToken": "x.y.z","accessToken":"a.b.c"}`

	out := Redact(in)

	assert.Contains(t, out, `"email":"a@b.c"`)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "x.y.z")
	assert.NotContains(t, out, "a.b.c")
	assert.Contains(t, out, `"password":"***"`)
}
