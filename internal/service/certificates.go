package service

import (
	"github.com/Skotchmaster/college_portal/internal/authz"
)

type Certificate struct {
	Name  string     `json:"name"`
	Fee   float64    `json:"fee"`
	Clerk authz.Role `json:"clerk_type"`
}

// Certificates lists what a student can request and which clerk desk
// handles each type. Faculty clerks own no certificate type.
var Certificates = []Certificate{
	{Name: "Bonafide Certificate", Fee: 100, Clerk: authz.RoleAdmission},
	{Name: "Course Completion Certificate", Fee: 100, Clerk: authz.RoleAdmission},
	{Name: "Transfer Certificate (TC)", Fee: 150, Clerk: authz.RoleAdmission},
	{Name: "Migration Certificate", Fee: 200, Clerk: authz.RoleAdmission},
	{Name: "Study Conduct Certificate", Fee: 100, Clerk: authz.RoleAdmission},
	{Name: "Income Tax (IT) Certificate", Fee: 0, Clerk: authz.RoleScholarship},
	{Name: "Custodian Certificate", Fee: 100, Clerk: authz.RoleScholarship},
}

func LookupCertificate(name string) (Certificate, bool) {
	for _, c := range Certificates {
		if c.Name == name {
			return c, true
		}
	}
	return Certificate{}, false
}
