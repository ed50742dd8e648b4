package model

import "time"

// Comment is a remark attached to a task.  Comments live and die with
// their task; there is no standalone comment lifecycle.
//
// Fields:
//  ID             – primary key identifier.
//  TaskID         – task the comment belongs to.
//  AuthorID       – user who wrote the comment.
//  AuthorUsername – username joined from the users table for listing.
//  Body           – comment text.
//  CreatedAt      – creation timestamp.
type Comment struct {
	ID             uint64    // comments.id
	TaskID         uint64    // comments.task_id
	AuthorID       uint64    // comments.author_id
	AuthorUsername string    // users.username, populated by joined queries
	Body           string    // comments.body
	CreatedAt      time.Time // comments.created_at
}
