package repositories

import "errors"

// ErrSchemaCorruption means the store header does not match models.CandidateHeader.
// Append recovers from it by resetting the store; it is only surfaced in logs.
var ErrSchemaCorruption = errors.New("candidate store header does not match schema")
