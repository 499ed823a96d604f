package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of user roles. The values are the display names
// stored on user rows.
type Role string

const (
	Admin         Role = "Admin"
	Cybersecurity Role = "Cybersecurity"
	DataScience   Role = "Data Science"
	ITOperations  Role = "IT Operations"
)

var Roles = []Role{Admin, Cybersecurity, DataScience, ITOperations}

var ErrUnknownRole = errors.New("unknown role")

func roleKey(s string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParseRole accepts a role name in any case and with or without separators,
// e.g. "IT Operations", "it_operations" or "ITOperations".
func ParseRole(s string) (Role, error) {
	key := roleKey(s)
	for _, r := range Roles {
		if roleKey(string(r)) == key {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Page is a dashboard a role may be allowed to open.
type Page string

const (
	PageCybersecurity Page = "cybersecurity"
	PageDataScience   Page = "data-science"
	PageITOperations  Page = "it-operations"
)

var Pages = []Page{PageCybersecurity, PageDataScience, PageITOperations}

func ParsePage(s string) (Page, bool) {
	for _, p := range Pages {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// VisiblePages lists the dashboards role can open, in navigation order.
func VisiblePages(role Role) []Page {
	switch role {
	case Admin:
		return append([]Page(nil), Pages...)
	case Cybersecurity:
		return []Page{PageCybersecurity}
	case DataScience:
		return []Page{PageDataScience}
	case ITOperations:
		return []Page{PageITOperations}
	default:
		return nil
	}
}
