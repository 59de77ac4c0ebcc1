package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hello", PlainText("  <b>hello</b> "))
	assert.Equal(t, "", PlainText("<script>alert(1)</script>"))
	assert.Equal(t, "Tom's & Jerry", PlainText("Tom's & Jerry"))
}

func TestRichTextKeepsFormatting(t *testing.T) {
	out := RichText(`<p onclick="x()">Join <b>us</b></p><script>alert(1)</script>`)
	assert.Equal(t, "<p>Join <b>us</b></p>", out)
}
