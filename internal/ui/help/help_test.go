package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRender_ContainsEverySection(t *testing.T) {
	out := Render(100, 60, lipgloss.Color("62"))
	for _, section := range Sections() {
		if !strings.Contains(out, section.Title) {
			t.Errorf("expected section %q in help output", section.Title)
		}
	}
	if !strings.Contains(out, "Save new rows") {
		t.Error("expected grid bindings in help output")
	}
}

func TestRender_TinyWindow(t *testing.T) {
	if out := Render(2, 2, lipgloss.Color("62")); out == "" {
		t.Error("expected output even for a tiny window")
	}
}
