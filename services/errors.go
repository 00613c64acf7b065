package services

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyProof      = errors.New("proof must not be empty")
	ErrInvalidVideoURL = errors.New("invalid YouTube URL")
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	ErrAlreadyReviewed = errors.New("submission already reviewed")
	ErrProfileExists   = errors.New("profile already exists")
	ErrTaskInactive    = errors.New("task is not active")
	ErrForbidden       = errors.New("forbidden")
	ErrNoProfile       = errors.New("no profile: sign up first")
)
