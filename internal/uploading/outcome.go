package uploading

// Envelope is the JSON object returned to upload clients.
type Envelope map[string]any

// Outcome is the result of one upload attempt. It is one of Disabled,
// NoResponse, ValidationFailure or Success.
type Outcome interface {
	isOutcome()
}

// Disabled means the upload endpoint is switched off.
type Disabled struct{}

// NoResponse means the uploader was asked but no gateway produced a response.
type NoResponse struct{}

// ValidationFailure carries the validation messages of a rejected upload.
type ValidationFailure struct {
	Errors []string
}

// Success carries the gateway's response body.
type Success struct {
	Payload Envelope
}

func (Disabled) isOutcome()          {}
func (NoResponse) isOutcome()        {}
func (ValidationFailure) isOutcome() {}
func (Success) isOutcome()           {}
