package users

import (
	"strings"
	"time"
)

// Role is the stored authorization role of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleEmployee }

// User is a profile document in the "users" collection, keyed by the
// identity-provider uid.
type User struct {
	UID       string    `bson:"_id" json:"uid"`
	Email     string    `bson:"email" json:"email"`
	FirstName string    `bson:"firstName" json:"firstName"`
	LastName  string    `bson:"lastName" json:"lastName"`
	Role      Role      `bson:"role" json:"role"`
	Disabled  bool      `bson:"disabled" json:"disabled"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
}

// FullName is derived and never stored.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile is the display view returned by the directory.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
}

func (u *User) Profile() Profile {
	return Profile{FirstName: u.FirstName, LastName: u.LastName, FullName: u.FullName(), Role: u.Role, Email: u.Email}
}
