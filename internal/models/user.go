package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles recognized by the gallery partitioning and the auth middleware.
const (
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

// Gender buckets used to scope recognition searches.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User is a registered account. Students carry at least three reference
// images in the gallery; professors carry one plus a password hash.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	LastName string             `bson:"last_name" json:"last_name"`
	Age      int                `bson:"age" json:"age"`
	Gender   string             `bson:"gender" json:"gender"`
	Email    string             `bson:"email" json:"email"`
	Role     string             `bson:"role" json:"role"`
	Password string             `bson:"password,omitempty" json:"-"`
	// Images holds gallery-relative paths of the user's reference face
	// images, e.g. "student/female/3f2a....jpg".
	Images []string `bson:"images" json:"images"`
	// CreatedBy references the professor who registered the student.
	CreatedBy string `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// DisplayName is the label rendered next to a recognized face.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}
