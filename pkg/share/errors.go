// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"errors"
	"fmt"
)

var (
	// ErrIntegrity matches every *IntegrityError
	ErrIntegrity = errors.New("share integrity check failed")

	// ErrResource matches every *ResourceError
	ErrResource = errors.New("not enough shares available")

	// ErrShortHeader is returned when fewer than HeaderSize bytes are available
	ErrShortHeader = errors.New("short share header")

	// ErrInvalidParams is returned when an encoder or decoder is built with
	// parameters outside the supported range
	ErrInvalidParams = errors.New("invalid share parameters")
)

// IntegrityReason names the check that rejected a set of shares
type IntegrityReason string

const (
	ReasonShortHeader      IntegrityReason = "short header"
	ReasonInvalidRequired  IntegrityReason = "invalid required count"
	ReasonRequiredMismatch IntegrityReason = "required count mismatch"
	ReasonLeftoverMismatch IntegrityReason = "leftover mismatch"
	ReasonSizeMismatch     IntegrityReason = "share size mismatch"
	ReasonInvalidLeftover  IntegrityReason = "invalid leftover"
	ReasonTruncatedShare   IntegrityReason = "share shorter than header"
	ReasonDuplicateIndex   IntegrityReason = "duplicate share index"
	ReasonIndexOutOfRange  IntegrityReason = "share index out of range"
)

// IntegrityError reports shares whose headers are inconsistent with each
// other or with their sizes. It is fatal to the decoder that produced it.
type IntegrityError struct {
	Reason IntegrityReason
	Share  int // position of the offending source, -1 when not tied to one
	Detail string
}

func (e *IntegrityError) Error() string {
	msg := "share integrity: " + string(e.Reason)
	if e.Share >= 0 {
		msg += fmt.Sprintf(" (source %d)", e.Share)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// ResourceError reports that fewer than the required number of shares could
// be acquired.
type ResourceError struct {
	Required  int
	Available int
	Err       error // last acquisition failure, if any
}

func (e *ResourceError) Error() string {
	msg := fmt.Sprintf("need %d shares, only %d available", e.Required, e.Available)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResourceError) Is(target error) bool {
	return target == ErrResource
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
