package theme

import "testing"

func TestNamesSortedAndIncludeDefault(t *testing.T) {
	names := Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 themes, got %v", names)
	}
	found := false
	for i, name := range names {
		if i > 0 && names[i-1] > name {
			t.Fatalf("names not sorted: %v", names)
		}
		if name == Default {
			found = true
		}
	}
	if !found {
		t.Fatalf("default theme %q missing from %v", Default, names)
	}
}

func TestForNameFallsBackToDefault(t *testing.T) {
	want := ForName(Default).Banner.Render("x")
	if got := ForName("no-such-theme").Banner.Render("x"); got != want {
		t.Fatalf("unknown theme rendered %q, want %q", got, want)
	}
}
