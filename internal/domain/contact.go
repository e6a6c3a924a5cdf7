package domain

import (
	"time"

	"gorm.io/gorm"
)

// LinkPrecedence is the role a contact plays inside its identity cluster.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

// Contact is one observed (email, phone) pair. Contacts sharing an email or
// phone are linked into a cluster with exactly one primary: the oldest
// contact ever placed in the cluster. A secondary's LinkedID always points
// directly at the cluster primary, never at another secondary.
//
// Email and PhoneNumber are never rewritten once set; reconciliation only
// adds contacts or flips LinkPrecedence/LinkedID.
type Contact struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber    *string        `gorm:"column:phone_number;index" json:"phone_number,omitempty"`
	Email          *string        `gorm:"column:email;index" json:"email,omitempty"`
	LinkedID       *int64         `gorm:"column:linked_id;index" json:"linked_id,omitempty"`
	LinkPrecedence LinkPrecedence `gorm:"column:link_precedence;type:text;not null" json:"link_precedence"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Contact) TableName() string { return "contacts" }

// IsPrimary reports whether the contact heads its cluster.
func (c *Contact) IsPrimary() bool { return c.LinkPrecedence == LinkPrecedencePrimary }

// EmailValue returns the email or "" when unset.
func (c *Contact) EmailValue() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}

// PhoneValue returns the phone number or "" when unset.
func (c *Contact) PhoneValue() string {
	if c.PhoneNumber == nil {
		return ""
	}
	return *c.PhoneNumber
}
