package sample

import "errors"

var (
	// ErrSampleNotFound indicates the sample doesn't exist.
	ErrSampleNotFound = errors.New("sample not found")
	// ErrInvalidInput indicates invalid sample input.
	ErrInvalidInput = errors.New("invalid sample input")
	// ErrUpload indicates the upload collaborator failed.
	ErrUpload = errors.New("upload failed")
	// ErrImport indicates the import collaborator failed or produced unusable data.
	ErrImport = errors.New("import failed")
	// ErrPackage indicates the packaging collaborator failed.
	ErrPackage = errors.New("packaging failed")
	// ErrNotConfigured indicates a collaborator is missing.
	ErrNotConfigured = errors.New("collaborator not configured")
)
