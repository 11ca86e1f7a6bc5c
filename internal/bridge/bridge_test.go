package bridge

import (
	"errors"
	"strings"
	"testing"
)

func TestByRole(t *testing.T) {
	sel := ByRole("textbox")
	if sel.Role != "textbox" || sel.Name != "" || sel.Exact {
		t.Errorf("unexpected selector %+v", sel)
	}
	sel = ByRole("button", "Create")
	if sel.Name != "Create" {
		t.Errorf("name = %q", sel.Name)
	}
}

func TestRoleSelectorString(t *testing.T) {
	tests := []struct {
		sel  RoleSelector
		want string
	}{
		{ByRole("main"), "role=main"},
		{ByRole("button", "Go"), `role=button[name="Go" i]`},
		{RoleSelector{Role: "button", Name: "Go", Exact: true}, `role=button[name="Go" s]`},
	}
	for _, tt := range tests {
		if got := tt.sel.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStrictModeError(t *testing.T) {
	var err error = &StrictModeError{Selector: ByRole("textbox"), Count: 2, Candidates: "e1:textbox\ne2:textbox\n"}
	var strict *StrictModeError
	if !errors.As(err, &strict) || strict.Count != 2 {
		t.Fatal("expected *StrictModeError")
	}
	msg := err.Error()
	if !strings.Contains(msg, "role=textbox resolved to 2 elements") {
		t.Errorf("message = %q", msg)
	}
	if strings.HasSuffix(msg, "\n") {
		t.Error("message should not end with a newline")
	}
}

func TestKeyFor(t *testing.T) {
	tests := map[string]string{
		"Enter":     "\r",
		"enter":     "\r",
		"Tab":       "\t",
		"Backspace": "\b",
		"Space":     " ",
		"a":         "a",
		"hello":     "hello",
	}
	for in, want := range tests {
		if got := KeyFor(in); got != want {
			t.Errorf("KeyFor(%q) = %q, want %q", in, got, want)
		}
	}
	for _, name := range []string{"Escape", "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight", "Home", "End", "Delete"} {
		if KeyFor(name) == name {
			t.Errorf("KeyFor(%q) should map to a key code", name)
		}
	}
}

func TestDisableAnimationsCSS(t *testing.T) {
	for _, want := range []string{"animation: none !important", "transition: none !important", "scroll-behavior: auto !important"} {
		if !strings.Contains(DisableAnimationsCSS, want) {
			t.Errorf("CSS missing %q", want)
		}
	}
}
