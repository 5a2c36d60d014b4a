package model

import "strings"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	InOffice = "In Office"
)

// AllTabs is what an "all" access value expands to
var AllTabs = []string{
	"History",
	"Travel",
	"Attendance",
	"Video",
	"License",
	"Local Travel",
	"Local Travel History",
	"OTR",
	"Report",
}

// Employee is a Master sheet row
type Employee struct {
	Name         string   `json:"salesPersonName"`
	Username     string   `json:"username"`
	Password     string   `json:"-"`
	Role         string   `json:"role"`
	Tabs         []string `json:"tabs"`
	EmployeeType string   `json:"employeeType,omitempty"`
	OfficeLat    float64  `json:"officeLat,omitempty"`
	OfficeLong   float64  `json:"officeLong,omitempty"`
	OfficeRange  float64  `json:"officeRange,omitempty"`
}

func (e Employee) IsAdmin() bool {
	return IsAdminRole(e.Role)
}

func IsAdminRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

// ParseAccess expands an access cell into tab names
func ParseAccess(access string) []string {
	access = strings.TrimSpace(access)
	if access == "all" {
		return append([]string(nil), AllTabs...)
	}
	tabs := []string{}
	for _, t := range strings.Split(access, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tabs = append(tabs, t)
		}
	}
	return tabs
}

// Viewer is the authenticated caller of an operation
type Viewer struct {
	Name     string
	Username string
	Role     string
}

func (v Viewer) IsAdmin() bool {
	return IsAdminRole(v.Role)
}
