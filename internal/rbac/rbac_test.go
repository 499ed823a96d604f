package rbac

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"Admin":           Admin,
		"admin":           Admin,
		"Cybersecurity":   Cybersecurity,
		"Data Science":    DataScience,
		"data_science":    DataScience,
		"IT Operations":   ITOperations,
		"itoperations":    ITOperations,
		" IT-Operations ": ITOperations,
	}
	for in, want := range tests {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseRole("Finance"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("ParseRole(Finance) err = %v", err)
	}
}

func TestVisiblePages(t *testing.T) {
	if got := VisiblePages(Admin); len(got) != 3 {
		t.Errorf("admin pages = %v", got)
	}
	if got := VisiblePages(DataScience); len(got) != 1 || got[0] != PageDataScience {
		t.Errorf("data science pages = %v", got)
	}
	if got := VisiblePages(Role("Guest")); got != nil {
		t.Errorf("unknown role pages = %v", got)
	}

	pages := VisiblePages(Admin)
	pages[0] = "tampered"
	if VisiblePages(Admin)[0] != PageCybersecurity {
		t.Error("VisiblePages leaked its backing slice")
	}
}

func TestEnforcerAgreesWithVisiblePages(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}
	for _, role := range append(append([]Role(nil), Roles...), Role("Guest")) {
		visible := map[Page]bool{}
		for _, p := range VisiblePages(role) {
			visible[p] = true
		}
		for _, page := range Pages {
			if got := e.CanView(role, page); got != visible[page] {
				t.Errorf("CanView(%s, %s) = %v, want %v", role, page, got, visible[page])
			}
		}
	}
}

func TestParsePage(t *testing.T) {
	if p, ok := ParsePage("IT-Operations"); !ok || p != PageITOperations {
		t.Errorf("ParsePage = %q, %v", p, ok)
	}
	if _, ok := ParsePage("payroll"); ok {
		t.Error("unexpected page")
	}
}
