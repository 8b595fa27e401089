package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptReadsTrimmedLines(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("  hello  \nlast"), &out)

	got, err := c.Prompt("You: ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = c.Prompt("You: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got, "a final line without newline is still returned")

	_, err = c.Prompt("You: ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "You: You: You: ", out.String())
}

func TestPrintHelpers(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)
	c.Println("a", "b")
	c.Printf("%d%%\n", 5)
	assert.Equal(t, "a b\n5%\n", out.String())
	assert.Same(t, &out, c.Writer())
}
