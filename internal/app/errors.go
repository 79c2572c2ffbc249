package app

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailAlreadyExists indicates a duplicate registration email.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrNotFound covers both missing resources and resources owned by someone
	// else; callers cannot tell the two apart.
	ErrNotFound = errors.New("resource not found")

	ErrNameRequired     = errors.New("name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is invalid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPromptRequired   = errors.New("prompt is required")
	ErrQueryRequired    = errors.New("query is required")
	ErrContentRequired  = errors.New("content is required")
	ErrDocumentRequired = errors.New("document id is required")

	// ErrExtraction indicates the document text could not be extracted.
	ErrExtraction = errors.New("text extraction failed")
	// ErrAIMalformed indicates the model output had no usable structure.
	ErrAIMalformed = errors.New("ai response malformed")
	// ErrAIRequest indicates the model call itself failed.
	ErrAIRequest = errors.New("ai request failed")
)
