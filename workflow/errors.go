package workflow

import (
	"errors"
	"strings"
)

// User facing status messages.
const (
	RequiredFieldsMessage   = "Please fill in all required fields"
	ProcessingMessage       = "Processing Excel file and generating EDI..."
	GeneratedMessage        = "EDI file generated successfully!"
	ProcessingFailedMessage = "Processing failed"
	ConnectionErrorMessage  = "Connection error. Make sure the backend server is running."
	DownloadedMessage       = "File downloaded successfully!"
	DownloadFailedMessage   = "Download failed"
	DownloadErrorMessage    = "Download error. Please try again."
)

var (
	// ErrBusy is returned while a submission (or download) is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNotAuthenticated is returned when the dashboard is used without a session.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrNoArtifact is returned by Download before any successful submission.
	ErrNoArtifact = errors.New("no generated EDI file to download")
	ErrUnknownCompany = errors.New("unknown company")
	ErrUnknownDocType = errors.New("unknown EDI type")
)

// ValidationError lists the required fields missing at generate time.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return RequiredFieldsMessage + ": missing " + strings.Join(e.Missing, ", ")
}
