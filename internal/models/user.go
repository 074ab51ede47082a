package models

import "time"

// Group names recognised by the role resolver.
const (
	GroupAdmin      = "ADMIN"
	GroupInspecteur = "INSPECTEUR"
)

// Group is a named role grouping users can belong to.
type Group struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

// User represents an authenticated staff account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	Groups       []Group   `gorm:"many2many:user_groups" json:"groups"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InGroup reports whether the user belongs to the named group.
func (u User) InGroup(name string) bool {
	for _, group := range u.Groups {
		if group.Name == name {
			return true
		}
	}
	return false
}
