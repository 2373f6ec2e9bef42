package core

// # Error Codes Reference
//
// Every error surfaced by the CLI or the HTTP API is mapped to a
// UserMessage carrying a short code users can quote.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found: the named dataset does not exist     (404)
//	FILE002 - Invalid CSV: the file could not be parsed             (422)
//	FILE003 - File too large: the upload exceeds DATA_MAX_FILE_SIZE (413)
//	FILE004 - No file: the upload carried no file part              (400)
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: a requested column is not in the header (400)
//	COL002 - Non-numeric column: a numeric statistic hit text         (422)
//	COL003 - Empty column: the column has no values                   (422)
//
// # Argument Errors (ARG001-ARG099)
//
//	ARG001 - Invalid argument: e.g. a percentile outside 1-100 (400)
//
// # Dataset Errors (DATA001-DATA099)
//
//	DATA001 - Empty dataset: the file has a header but no rows (422)
//
// # Analysis Errors (ANL001-ANL099)
//
//	ANL001 - System busy: every analysis slot is taken (503)
//	ANL002 - Request cancelled                         (499)
//	ANL003 - Request timed out                         (504)
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error (500). Check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Errors that crossed a
// boundary as plain text fall back to case-insensitive substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/estatekit/internal/describe"
	"github.com/JonMunkholm/estatekit/internal/loader"
)

// StatusClientClosedRequest is the non-standard status logged when the
// client goes away before the analysis finishes.
const StatusClientClosedRequest = 499

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
	Status  int    `json:"-"`       // HTTP status for the web layer
}

var (
	msgFileNotFound = UserMessage{
		Message: "Dataset file not found",
		Action:  "Check the file name and the configured data directory",
		Code:    "FILE001",
		Status:  http.StatusNotFound,
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a single header row",
		Code:    "FILE002",
		Status:  http.StatusUnprocessableEntity,
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Upload a smaller extract of the dataset",
		Code:    "FILE003",
		Status:  http.StatusRequestEntityTooLarge,
	}
	msgNoFile = UserMessage{
		Message: "No file was provided",
		Action:  "Attach the CSV as the multipart field \"file\"",
		Code:    "FILE004",
		Status:  http.StatusBadRequest,
	}
	msgUnknownColumn = UserMessage{
		Message: "Requested column does not exist",
		Action:  "Use column names from the cleaned header, e.g. sale_price",
		Code:    "COL001",
		Status:  http.StatusBadRequest,
	}
	msgNonNumeric = UserMessage{
		Message: "Column contains non-numeric values",
		Action:  "Request numeric statistics on numeric columns only",
		Code:    "COL002",
		Status:  http.StatusUnprocessableEntity,
	}
	msgEmptyColumn = UserMessage{
		Message: "Column has no values",
		Action:  "Every value in this column is missing; choose another column",
		Code:    "COL003",
		Status:  http.StatusUnprocessableEntity,
	}
	msgInvalidArgument = UserMessage{
		Message: "Invalid argument",
		Action:  "Percentiles must be whole numbers from 1 to 100",
		Code:    "ARG001",
		Status:  http.StatusBadRequest,
	}
	msgEmptyDataset = UserMessage{
		Message: "Dataset has no rows",
		Action:  "Provide a file with at least one data row below the header",
		Code:    "DATA001",
		Status:  http.StatusUnprocessableEntity,
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other analyses",
		Action:  "Please wait a moment and try again",
		Code:    "ANL001",
		Status:  http.StatusServiceUnavailable,
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "ANL002",
		Status:  StatusClientClosedRequest,
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or fewer columns",
		Code:    "ANL003",
		Status:  http.StatusGatewayTimeout,
	}
)

// sentinels is checked in order with errors.Is. Size errors come first
// because the loader wraps reader failures in loader.ErrParse.
var sentinels = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{loader.ErrFileNotFound, msgFileNotFound},
	{loader.ErrParse, msgInvalidCSV},
	{describe.ErrUnknownColumn, msgUnknownColumn},
	{describe.ErrNonNumericColumn, msgNonNumeric},
	{describe.ErrEmptyColumn, msgEmptyColumn},
	{describe.ErrInvalidArgument, msgInvalidArgument},
	{describe.ErrEmptyDataset, msgEmptyDataset},
	{ErrTooManyAnalyses, msgBusy},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPatterns maps error text (case-insensitive) to user messages for
// errors that lost their chain. The first match wins.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"file not found", msgFileNotFound},
	{"no such file", msgFileNotFound},
	{"invalid csv", msgInvalidCSV},
	{"unknown column", msgUnknownColumn},
	{"non-numeric column", msgNonNumeric},
	{"empty column", msgEmptyColumn},
	{"invalid argument", msgInvalidArgument},
	{"empty dataset", msgEmptyDataset},
	{"too many concurrent analyses", msgBusy},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
