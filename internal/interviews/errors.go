package interviews

import "errors"

var (
	ErrNotFound         = errors.New("interview not found")
	ErrInvalidInput     = errors.New("invalid interview input")
	ErrQuestionMismatch = errors.New("question does not belong to interview")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrNoAnswers        = errors.New("interview has no answers")
	ErrInterviewClosed  = errors.New("interview is closed")
	ErrNotEligible      = errors.New("application is not eligible for an interview")
	ErrForbidden        = errors.New("not allowed to access interview")

	// errActiveExists is returned by Create when the application already has
	// a scheduled or in-progress interview.
	errActiveExists = errors.New("active interview exists")
)
