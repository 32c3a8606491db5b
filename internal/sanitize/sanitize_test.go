package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"bold tag", "<b>Hello</b> world", "Hello world"},
		{"google alerts title", "New <b>AI</b> model released", "New AI model released"},
		{"entities", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"nested", "<p>One <a href=\"x\">two</a></p>", "One two"},
		{"surrounding space", "  <i>x</i>  ", "x"},
		{"empty", "", ""},
		{"japanese", "<b>人工知能</b>の進展", "人工知能の進展"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
