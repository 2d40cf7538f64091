package links

import (
	"reflect"
	"testing"
)

func TestExtractAnchors(t *testing.T) {
	tests := []struct {
		name string
		html string
		base string
		want []string
	}{
		{
			name: "absolute and relative",
			html: `<a href="https://example.com/a">A</a><a href="/b">B</a><a href="c/d">C</a>`,
			base: "https://example.com/section/",
			want: []string{
				"https://example.com/a",
				"https://example.com/b",
				"https://example.com/section/c/d",
			},
		},
		{
			name: "fragments stripped",
			html: `<a href="/page#intro">one</a><a href="/page#details">two</a>`,
			base: "https://example.com",
			want: []string{"https://example.com/page"},
		},
		{
			name: "non-http schemes dropped",
			html: `<a href="mailto:hi@example.com">m</a><a href="javascript:void(0)">j</a><a href="tel:+123">t</a><a href="/ok">ok</a>`,
			base: "https://example.com",
			want: []string{"https://example.com/ok"},
		},
		{
			name: "duplicates removed in document order",
			html: `<a href="/a">1</a><a href="/b">2</a><a href="/a">3</a>`,
			base: "https://example.com",
			want: []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name: "empty href skipped",
			html: `<a href="">x</a><a>no href</a>`,
			base: "https://example.com",
			want: nil,
		},
		{
			name: "query preserved",
			html: `<a href="/search?q=schema">q</a>`,
			base: "https://example.com",
			want: []string{"https://example.com/search?q=schema"},
		},
		{
			name: "no anchors",
			html: `<p>plain text</p>`,
			base: "https://example.com",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAnchors(tt.html, tt.base)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractAnchors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractAnchors_InvalidBase(t *testing.T) {
	got := ExtractAnchors(`<a href="/a">a</a>`, "ht tp://bad base")
	if got != nil {
		t.Errorf("invalid base should yield nil, got %v", got)
	}
}
