package model

import "time"

// Project represents a project owned by a single user.  Other users are
// attached through the project_members join table; the owner never gets a
// membership row and access checks OR the two conditions.  Deleting a
// project removes its tasks, files and membership rows in one transaction.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user ID of the project owner, immutable after creation.
//  Name        – human-friendly project name.
//  Description – optional free-form description.
//  CreatedAt   – timestamp when the project was created.
type Project struct {
	ID          uint64    // projects.id
	OwnerID     uint64    // projects.owner_id
	Name        string    // projects.name
	Description string    // projects.description
	CreatedAt   time.Time // projects.created_at
}

// Member is a row of the project_members join table augmented with the
// member's username and email for listing.
type Member struct {
	ProjectID uint64 // project_members.project_id
	UserID    uint64 // project_members.user_id
	Username  string // users.username
	Email     string // users.email
}
