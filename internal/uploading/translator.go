package uploading

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/filerepository"
)

// ErrFeatureDisabled is returned by Translate for the Disabled outcome. The
// HTTP layer turns it into a 404.
var ErrFeatureDisabled = errors.New("uploader is disabled")

// UnableToProcessMessage is the error text of the NoResponse envelope.
const UnableToProcessMessage = "Unable to find an upload gateway that is able to process this request."

// ValidationFailedMessage is the summary of a validation failure without messages.
const ValidationFailedMessage = "File validation failed."

// Uploader handles an upload request. A nil Envelope with a nil error means
// nothing handled the request. Validation problems are reported as
// *filerepository.ValidationError.
type Uploader interface {
	Upload(c *fiber.Ctx) (Envelope, error)
}

// Attempt runs one upload attempt. When enabled is false the uploader is not
// called. Errors other than validation failures are returned unchanged.
func Attempt(c *fiber.Ctx, enabled bool, uploader Uploader) (Outcome, error) {
	if !enabled {
		return Disabled{}, nil
	}

	payload, err := uploader.Upload(c)
	if err != nil {
		var verr *filerepository.ValidationError
		if errors.As(err, &verr) {
			return ValidationFailure{Errors: verr.Errors()}, nil
		}
		return nil, err
	}
	if payload == nil {
		return NoResponse{}, nil
	}
	return Success{Payload: payload}, nil
}

// Translate maps an outcome to the response envelope.
func Translate(o Outcome) (Envelope, error) {
	switch o := o.(type) {
	case Disabled:
		return nil, ErrFeatureDisabled
	case NoResponse:
		return Envelope{
			"success": false,
			"error":   UnableToProcessMessage,
		}, nil
	case ValidationFailure:
		summary := strings.Join(o.Errors, ", ")
		if summary == "" {
			summary = ValidationFailedMessage
		}
		return Envelope{
			"success": false,
			"error":   summary,
			"errors":  append([]string{}, o.Errors...),
		}, nil
	case Success:
		return o.Payload, nil
	default:
		return nil, fmt.Errorf("unexpected upload outcome %T", o)
	}
}
