package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()
	assert.NotEmpty(t, theme.Success)
	assert.NotEmpty(t, theme.Error)
	assert.NotEmpty(t, theme.Label)
	assert.NotEmpty(t, theme.Muted)
}

func TestStyles_DisabledIsPlain(t *testing.T) {
	s := NewStyles(nil, false)

	assert.Equal(t, "7", s.Success(7))
	assert.Equal(t, "3", s.Failure(3))
	assert.Equal(t, "blog", s.Label("blog"))
	assert.Equal(t, "OK", s.OK())
	assert.Equal(t, "Error", s.Error())
	assert.Equal(t, "hint", s.Muted("hint"))
}

func TestStyles_ZeroCountsStayPlain(t *testing.T) {
	s := NewStyles(nil, true)

	assert.Equal(t, "0", s.Success(0))
	assert.Equal(t, "0", s.Failure(0))
}

func TestStyles_EnabledKeepsText(t *testing.T) {
	s := NewStyles(nil, true)

	assert.Contains(t, s.Success(5), "5")
	assert.Contains(t, s.Label("blog"), "blog")
}

func TestStylesFor_NonTerminalDisabled(t *testing.T) {
	s := stylesFor(new(bytes.Buffer))
	assert.False(t, s.enabled)
}
