// Package domain contains persistence models for general assemblies.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GeneralAssembly is one general assembly of the cooperative. The
// bilingual subject and body are the invitation email content; all four
// must be filled before invitations may go out.
type GeneralAssembly struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	AssemblyNumber int64        `gorm:"not null;uniqueIndex" json:"assembly_number"`
	Name           string       `gorm:"not null" json:"name"`
	AssemblyDate   time.Time    `gorm:"not null" json:"assembly_date"`

	SubjectEN string `gorm:"not null;default:''" json:"subject_en"`
	SubjectDE string `gorm:"not null;default:''" json:"subject_de"`
	BodyEN    string `gorm:"not null;default:''" json:"body_en"`
	BodyDE    string `gorm:"not null;default:''" json:"body_de"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (GeneralAssembly) TableName() string { return "general_assemblies" }

// Invitation records that one member was invited to one assembly. The
// unique index keeps invitations to at most one per member and assembly.
type Invitation struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	MemberID   snowflake.ID `gorm:"not null;uniqueIndex:ux_assembly_invitations_member_assembly" json:"member_id"`
	AssemblyID snowflake.ID `gorm:"not null;uniqueIndex:ux_assembly_invitations_member_assembly" json:"assembly_id"`
	SentAt     time.Time    `gorm:"not null" json:"sent_at"`
	Token      string       `gorm:"not null;default:''" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "assembly_invitations" }
