package parse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	content := `<html><body>
		<a href="/relative">one</a>
		<a href="https://other.test/abs">two</a>
		<a href="/relative">duplicate kept</a>
		<a href="">empty skipped</a>
		<a>no href skipped</a>
		<a href="  /trimmed  ">three</a>
	</body></html>`

	links, err := ExtractLinks(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"/relative", "https://other.test/abs", "/relative", "/trimmed"}, links)
}

func TestExtractLinks_NoAnchors(t *testing.T) {
	links, err := ExtractLinks("<html><body><p>plain</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractLinks_MalformedHTML(t *testing.T) {
	// The HTML parser is lenient; broken markup still yields what it can.
	links, err := ExtractLinks(`<a href="/a"><div><a href="/b">`)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, links)
}

func TestResolveLink(t *testing.T) {
	base, _ := url.Parse("http://a.test/dir/page.html")

	tests := []struct {
		name     string
		href     string
		expected string
		ok       bool
	}{
		{"Relative", "other.html", "http://a.test/dir/other.html", true},
		{"RootRelative", "/b", "http://a.test/b", true},
		{"Absolute", "https://b.test/x", "https://b.test/x", true},
		{"FragmentOnly", "#section", "http://a.test/dir/page.html#section", true},
		{"Mailto", "mailto:x@a.test", "", false},
		{"Javascript", "javascript:void(0)", "", false},
		{"Tel", "tel:+123", "", false},
		{"SchemeRelative", "//c.test/y", "http://c.test/y", true},
		{"Unparseable", "http://%zz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := ResolveLink(base, tt.href)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotNil(t, resolved)
				assert.Equal(t, tt.expected, resolved.String())
			}
		})
	}
}
