package uploading

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileuploader/internal/filerepository"
)

type fakeUploader struct {
	payload Envelope
	err     error
	calls   int
}

func (f *fakeUploader) Upload(*fiber.Ctx) (Envelope, error) {
	f.calls++
	return f.payload, f.err
}

func TestAttempt_DisabledNeverCallsUploader(t *testing.T) {
	uploaders := []*fakeUploader{
		{payload: Envelope{"success": true}},
		{err: filerepository.NewValidationError("a", "bad")},
		{err: errors.New("boom")},
		{},
	}
	for _, up := range uploaders {
		outcome, err := Attempt(nil, false, up)
		require.NoError(t, err)
		assert.Equal(t, Disabled{}, outcome)
		assert.Zero(t, up.calls)

		env, err := Translate(outcome)
		assert.ErrorIs(t, err, ErrFeatureDisabled)
		assert.Nil(t, env)
	}
}

func TestAttempt_ClassifiesUploaderResults(t *testing.T) {
	tests := []struct {
		name string
		up   *fakeUploader
		want Outcome
	}{
		{"no response", &fakeUploader{}, NoResponse{}},
		{"validation", &fakeUploader{err: filerepository.NewValidationError("f", "m1", "m2")}, ValidationFailure{Errors: []string{"m1", "m2"}}},
		{"wrapped validation", &fakeUploader{err: errorsJoin(filerepository.NewValidationError("f", "m1"))}, ValidationFailure{Errors: []string{"m1"}}},
		{"success", &fakeUploader{payload: Envelope{"success": true}}, Success{Payload: Envelope{"success": true}}},
		{"empty success", &fakeUploader{payload: Envelope{}}, Success{Payload: Envelope{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Attempt(nil, true, tc.up)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, tc.up.calls)
		})
	}
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("gateway failed"), err)
}

func TestAttempt_InfrastructureErrorIsReturned(t *testing.T) {
	boom := errors.New("storage down")
	outcome, err := Attempt(nil, true, &fakeUploader{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, outcome)
}

func TestTranslate_ValidationFailureKeepsOrderAndText(t *testing.T) {
	msgs := []string{"some error", "another error", "third"}
	env, err := Translate(ValidationFailure{Errors: msgs})
	require.NoError(t, err)

	assert.Equal(t, false, env["success"])
	assert.Equal(t, msgs, env["errors"])
	assert.Contains(t, env["error"], "some error")
	assert.Contains(t, env["error"], "third")

	msgs[0] = "mutated"
	assert.Equal(t, "some error", env["errors"].([]string)[0], "envelope must not share the caller's slice")
}

func TestTranslate_ValidationFailureWithoutMessages(t *testing.T) {
	for _, errs := range [][]string{nil, {}} {
		env, err := Translate(ValidationFailure{Errors: errs})
		require.NoError(t, err)
		assert.Equal(t, ValidationFailedMessage, env["error"])
		assert.Equal(t, []string{}, env["errors"])
	}

	outcome, err := Attempt(nil, true, &fakeUploader{err: filerepository.NewValidationError("f")})
	require.NoError(t, err)
	env, err := Translate(outcome)
	require.NoError(t, err)
	assert.Equal(t, ValidationFailedMessage, env["error"])
}

func TestTranslate_NoResponse(t *testing.T) {
	env, err := Translate(NoResponse{})
	require.NoError(t, err)
	assert.Equal(t, Envelope{"success": false, "error": UnableToProcessMessage}, env)
	assert.Contains(t, env["error"], "Unable")
}

func TestTranslate_SuccessIsPassedThrough(t *testing.T) {
	payload := Envelope{"success": true, "blah": "foo"}
	env, err := Translate(Success{Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, Envelope{"success": true, "blah": "foo"}, env)

	failedPayload := Envelope{"success": false, "reason": "gateway decided"}
	env, err = Translate(Success{Payload: failedPayload})
	require.NoError(t, err)
	assert.Equal(t, failedPayload, env, "the gateway's own success flag is not altered")
}

func TestTranslate_UnknownOutcome(t *testing.T) {
	_, err := Translate(nil)
	assert.Error(t, err)
}
