package services

import "errors"

var (
	// ErrExtractionFailed means the document produced no usable text.
	ErrExtractionFailed = errors.New("no text content found in document")

	// ErrInvalidInput covers a missing file or an empty job description.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFileType is returned for uploads that are not .pdf files.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrEncoderUnavailable means the semantic encoder could not be reached.
	ErrEncoderUnavailable = errors.New("semantic encoder unavailable")
)
