package pathresolve

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		basePath  string
		reference string
		want      string
	}{
		{
			name:      "sibling reference",
			basePath:  "readme.md",
			reference: "other.md",
			want:      "other.md",
		},
		{
			name:      "parent directory reference",
			basePath:  "docs/intro/overview.md",
			reference: "../api/auth.md",
			want:      "docs/api/auth.md",
		},
		{
			name:      "root-relative reference",
			basePath:  "docs/intro.md",
			reference: "/api/endpoints.md",
			want:      "api/endpoints.md",
		},
		{
			name:      "current directory prefix",
			basePath:  "Documentation/guide.md",
			reference: "./other.md",
			want:      "Documentation/other.md",
		},
		{
			name:      "nested relative descent",
			basePath:  "a/b/c.md",
			reference: "sub/deep.md",
			want:      "a/b/sub/deep.md",
		},
		{
			name:      "double parent",
			basePath:  "a/b/c/d.md",
			reference: "../../x.md",
			want:      "a/x.md",
		},
		{
			name:      "parent past root is a no-op",
			basePath:  "top.md",
			reference: "../../escape.md",
			want:      "escape.md",
		},
		{
			name:      "mixed dot segments",
			basePath:  "a/b/c.md",
			reference: "./../x/./y.md",
			want:      "a/x/y.md",
		},
		{
			name:      "consecutive slashes collapse",
			basePath:  "a/b.md",
			reference: "x//y.md",
			want:      "a/x/y.md",
		},
		{
			name:      "absolute URL passes through",
			basePath:  "docs/intro.md",
			reference: "https://example.com/page",
			want:      "https://example.com/page",
		},
		{
			name:      "anchor passes through",
			basePath:  "docs/intro.md",
			reference: "#section-2",
			want:      "#section-2",
		},
		{
			name:      "mailto passes through",
			basePath:  "docs/intro.md",
			reference: "mailto:team@example.com",
			want:      "mailto:team@example.com",
		},
		{
			name:      "tel passes through",
			basePath:  "docs/intro.md",
			reference: "tel:+15551234567",
			want:      "tel:+15551234567",
		},
		{
			name:      "data URI passes through",
			basePath:  "docs/intro.md",
			reference: "data:text/plain;base64,aGk=",
			want:      "data:text/plain;base64,aGk=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.basePath, tt.reference)
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.basePath, tt.reference, got, tt.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	cases := [][2]string{
		{"docs/intro/overview.md", "../api/auth.md"},
		{"docs/intro.md", "/api/endpoints.md"},
		{"readme.md", "other.md"},
		{"a/b/c.md", "./../x/./y.md"},
	}

	for _, c := range cases {
		resolved := Resolve(c[0], c[1])
		if again := Resolve(resolved, "."); again != resolved {
			t.Errorf("normalization not idempotent: %q -> %q", resolved, again)
		}
	}
}

func TestIsDocumentReference(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"other.md", true},
		{"../api/auth.md", true},
		{"/absolute/doc.md", true},
		{"https://example.com", false},
		{"http://example.com", false},
		{"#anchor", false},
		{"mailto:a@b.c", false},
		{"tel:+1555", false},
		{"data:text/plain,hi", false},
	}

	for _, tt := range tests {
		if got := IsDocumentReference(tt.href); got != tt.want {
			t.Errorf("IsDocumentReference(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}
