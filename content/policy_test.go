package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	p := NewPolicy(true)

	got := p.Sanitize(`<p>Hi</p><script>alert(1)</script>`)
	assert.Equal(t, "<p>Hi</p>", got)

	got = p.Sanitize(`<p onclick="steal()">Body</p>`)
	assert.NotContains(t, got, "onclick")
	assert.Contains(t, got, "Body")

	got = p.Sanitize(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, got, "javascript:")
}

func TestSanitizeKeepsEditorMarkup(t *testing.T) {
	p := NewPolicy(true)

	got := p.Sanitize(`<p style="text-align: center">centered</p>`)
	assert.Contains(t, got, "text-align")

	got = p.Sanitize(`<pre><code class="language-go">fmt.Println()</code></pre>`)
	assert.Contains(t, got, `class="language-go"`)

	got = p.Sanitize(`<p><mark>hi</mark> <img src="/uploads/ab/cd.png" alt="x"></p>`)
	assert.Contains(t, got, "<mark>")
	assert.Contains(t, got, `src="/uploads/ab/cd.png"`)
}

func TestDisabledPolicyPassesThrough(t *testing.T) {
	p := NewPolicy(false)
	raw := ` <p>Hi</p><script>x</script> `

	assert.False(t, p.Enabled())
	assert.Equal(t, "<p>Hi</p><script>x</script>", p.Sanitize(raw))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 2, WordCount("<p>Hello world</p>"))
	assert.Equal(t, 3, WordCount("<p>Hello world</p><p>again</p>"))
	assert.Equal(t, 4, WordCount("<ul><li>one two</li><li><strong>three</strong> four</li></ul>"))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("<p></p>"))
	assert.True(t, IsBlank("<p>  </p><br>"))
	assert.False(t, IsBlank("<p>x</p>"))
	assert.False(t, IsBlank(`<p><img src="/a.png"></p>`))
}
