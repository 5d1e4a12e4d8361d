package domain

import "time"

// User is the profile and scoring preferences of a session identity.
type User struct {
	ID         string    `gorm:"primaryKey;size:255" bson:"_id" json:"id"`
	Name       string    `gorm:"size:255" bson:"name" json:"name"`
	Email      string    `gorm:"size:255" bson:"email" json:"email,omitempty"`
	JobTitle   string    `gorm:"size:255" bson:"jobTitle" json:"jobTitle"`
	AvatarURL  string    `gorm:"size:1024" bson:"avatarUrl" json:"avatarUrl"`
	APIKey     string    `gorm:"size:512" bson:"apiKey" json:"-"`
	Model      string    `gorm:"size:128" bson:"model" json:"model,omitempty"`
	Strictness *int      `bson:"strictness,omitempty" json:"strictness,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

type ProfilePatch struct {
	Name      *string
	JobTitle  *string
	AvatarURL *string
}

type SettingsPatch struct {
	APIKey     *string
	Model      *string
	Strictness *int
}
