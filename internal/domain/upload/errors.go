package upload

import "errors"

var (
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrFileTooLarge    = errors.New("uploaded file exceeds size limit")
	ErrInvalidMimeType = errors.New("file type not allowed")
)
