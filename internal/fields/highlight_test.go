package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords string
		want     string
	}{
		{
			name:     "single term any case",
			text:     "John@Example.com",
			keywords: "example",
			want:     `John@<span class="search-highlight">Example</span>.com`,
		},
		{
			name:     "duplicate and multiple terms",
			text:     "john.doe@example.com",
			keywords: "john doe john",
			want:     `<span class="search-highlight">john</span>.<span class="search-highlight">doe</span>@example.com`,
		},
		{
			name:     "ideographic space splits terms",
			text:     "ann@corp.jp",
			keywords: "ann\u3000corp",
			want:     `<span class="search-highlight">ann</span>@<span class="search-highlight">corp</span>.jp`,
		},
		{
			name:     "regex metacharacters are literal",
			text:     "a.b@c.com",
			keywords: "a.b",
			want:     `<span class="search-highlight">a.b</span>@c.com`,
		},
		{
			name:     "html is escaped",
			text:     "o'neil&co@x.com",
			keywords: "&co",
			want:     `o&#39;neil<span class="search-highlight">&amp;co</span>@x.com`,
		},
		{
			name:     "term does not match inside an entity",
			text:     "a&b@x.com",
			keywords: "a",
			want:     `<span class="search-highlight">a</span>&amp;b@x.com`,
		},
		{
			name:     "entity text is not a match",
			text:     "tom&amy@x.com",
			keywords: "amp",
			want:     `tom&amp;amy@x.com`,
		},
		{
			name:     "blank keywords escape the text",
			text:     "a<b@x.com",
			keywords: "   ",
			want:     "a&lt;b@x.com",
		},
		{
			name:     "blank keywords",
			text:     "a@b.com",
			keywords: "   ",
			want:     "a@b.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Highlight(tt.text, tt.keywords))
		})
	}
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"1", "true", "ON", " yes "} {
		assert.True(t, Truthy(s), s)
	}
	for _, s := range []string{"", "0", "false", "off", "checked"} {
		assert.False(t, Truthy(s), s)
	}

	post := Post{"all_day": "on", "stream": "0"}
	assert.True(t, post.Flag("all_day"))
	assert.False(t, post.Flag("stream"))
	assert.False(t, post.Flag("missing"))
}
