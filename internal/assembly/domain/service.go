package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidAssemblyID = errors.New("invalid_assembly_id")
	ErrAssemblyNotFound  = errors.New("assembly_not_found")

	ErrNameRequired         = errors.New("the assembly needs a name")
	ErrAssemblyInPast       = errors.New("the assembly date has already passed")
	ErrContentIncomplete    = errors.New("invitation subject and body must be set in both languages")
	ErrAlreadyInvited       = errors.New("the member was already invited to this assembly")
	ErrMembershipNotCovered = errors.New("the membership period does not cover the assembly date")
)

type CreateAssemblyRequest struct {
	Name         string    `json:"name" binding:"required"`
	AssemblyDate time.Time `json:"assembly_date" binding:"required"`
	SubjectEN    string    `json:"subject_en"`
	SubjectDE    string    `json:"subject_de"`
	BodyEN       string    `json:"body_en"`
	BodyDE       string    `json:"body_de"`
}

type UpdateAssemblyRequest struct {
	Name         *string    `json:"name"`
	AssemblyDate *time.Time `json:"assembly_date"`
	SubjectEN    *string    `json:"subject_en"`
	SubjectDE    *string    `json:"subject_de"`
	BodyEN       *string    `json:"body_en"`
	BodyDE       *string    `json:"body_de"`
}

type Service interface {
	// Create registers an assembly. Same-day dates are allowed; only
	// dates strictly in the past are rejected.
	Create(ctx context.Context, req CreateAssemblyRequest) (GeneralAssembly, error)

	// Update edits an assembly. Blocked once the assembly date has
	// passed.
	Update(ctx context.Context, assemblyID string, req UpdateAssemblyRequest) (GeneralAssembly, error)

	Get(ctx context.Context, assemblyID string) (GeneralAssembly, error)
	List(ctx context.Context) ([]GeneralAssembly, error)

	// Invite emails the assembly invitation to one member, at most once
	// per member and assembly.
	Invite(ctx context.Context, assemblyID, memberID string) (Invitation, error)
}
