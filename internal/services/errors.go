package services

import "errors"

var (
	// ErrInvalidCredentials covers unknown users, inactive users and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthorizationDenied is returned when a user's role is not allowed.
	ErrAuthorizationDenied = errors.New("authorization denied")

	ErrNoFileSelected    = errors.New("no file selected")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUploadTooLarge    = errors.New("upload too large")

	ErrArtifactNotFound      = errors.New("artifact not found")
	ErrPathTraversalRejected = errors.New("stored name rejected")

	ErrInvalidUsername = errors.New("username is required")
	ErrInvalidPassword = errors.New("password is required")
	ErrInvalidRole     = errors.New("unknown role")
)
