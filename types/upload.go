package types

import "time"

// Upload is the metadata row recorded for a stored spreadsheet.
type Upload struct {
	ID int `json:"id" db:"id"`

	// OriginalName is the client supplied filename. It is untrusted and
	// only used for display.
	OriginalName string `json:"original_name" db:"original_name"`

	// StoredName is the sanitized, unique key of the artifact in storage.
	StoredName string `json:"stored_name" db:"stored_name"`

	// UploadedBy references the user that uploaded the file.
	UploadedBy int `json:"uploaded_by" db:"uploaded_by"`

	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`

	// Notes is optional free text; empty means no notes.
	Notes string `json:"notes,omitempty" db:"notes"`
}

// UploadListItem is an upload joined with its uploader's username, as shown
// in the recent uploads listing.
type UploadListItem struct {
	Upload
	UploaderUsername string `json:"uploader_username" db:"username"`
}

// UploadEvent is published once an upload row has been committed.
type UploadEvent struct {
	UploadID     int       `json:"upload_id"`
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	UploadedBy   int       `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
