package model

import "time"

// File records an uploaded artifact.  A file is attached to exactly one
// of a task or a project; no create path produces a file with neither
// parent.  The physical bytes live under a single configured directory
// keyed by StorageName, and are removed together with the row when the
// parent task or project is deleted.
//
// Fields:
//  ID           – primary key identifier.
//  UploaderID   – user who uploaded the file.
//  TaskID       – owning task (nil when attached to a project).
//  ProjectID    – owning project (nil when attached to a task).
//  StorageName  – unique on-disk name derived from the original filename.
//  OriginalName – filename as provided by the uploader.
//  UploadedAt   – upload timestamp.
type File struct {
	ID           uint64    // files.id
	UploaderID   uint64    // files.uploader_id
	TaskID       *uint64   // files.task_id (nullable)
	ProjectID    *uint64   // files.project_id (nullable)
	StorageName  string    // files.storage_name
	OriginalName string    // files.original_name
	UploadedAt   time.Time // files.uploaded_at
}
