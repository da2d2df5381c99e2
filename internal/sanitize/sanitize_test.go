package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_StripsMarkup(t *testing.T) {
	got := Text(`  I follow <b>BBCA</b> and <script>alert(1)</script>bonds  `)
	assert.Equal(t, "I follow BBCA and bonds", got)
}

func TestText_KeepsAmpersands(t *testing.T) {
	assert.Equal(t, "AT&T and P&G", Text("AT&T and P&G"))
}

func TestText_Empty(t *testing.T) {
	assert.Equal(t, "", Text(""))
	assert.Equal(t, "", Text("   "))
}

func TestURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=1", URL(" https://example.com/a?b=1 "))
	assert.Equal(t, "", URL("javascript:alert(1)"))
	assert.Equal(t, "", URL("/relative/path"))
	assert.Equal(t, "", URL("ftp://example.com/file"))
	assert.Equal(t, "", URL(""))
}
