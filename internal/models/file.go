package models

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileStatusUploaded   FileStatus = "uploaded"
	FileStatusProcessing FileStatus = "processing"
	FileStatusProcessed  FileStatus = "processed"
	FileStatusFailed     FileStatus = "failed"
)

var fileTransitions = map[FileStatus][]FileStatus{
	FileStatusUploaded:   {FileStatusProcessing, FileStatusProcessed, FileStatusFailed},
	FileStatusProcessing: {FileStatusProcessed, FileStatusFailed},
}

func (s FileStatus) Valid() bool {
	switch s {
	case FileStatusUploaded, FileStatusProcessing, FileStatusProcessed, FileStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a file may move from s to next. processed
// and failed are terminal.
func (s FileStatus) CanTransition(next FileStatus) bool {
	for _, allowed := range fileTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources lists the statuses a file may move to next from.
func TransitionSources(next FileStatus) []FileStatus {
	var sources []FileStatus
	for from, targets := range fileTransitions {
		for _, to := range targets {
			if to == next {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

type UploadedFile struct {
	ID           uuid.UUID  `db:"id"`
	FileName     string     `db:"file_name"`
	OriginalName string     `db:"original_name"`
	MimeType     string     `db:"mime_type"`
	FileSize     int64      `db:"file_size"`
	Status       FileStatus `db:"status"`
	ClaimID      *uuid.UUID `db:"claim_id"`
	UserID       *uuid.UUID `db:"user_id"`
	UploadedAt   time.Time  `db:"uploaded_at"`
}
