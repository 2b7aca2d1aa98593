package export

import "fmt"

// FileError indicates a settings file that cannot be imported: wrong
// type tag, unsupported version, mode mismatch, or a malformed payload.
// It is always field-specific; import never silently repairs a file.
type FileError struct {
	Field  string
	Reason string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("settings file: %s: %s", e.Field, e.Reason)
}

func fileErrf(field, format string, args ...interface{}) *FileError {
	return &FileError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
