package aws

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrorCode returns the AWS API error code wrapped in err, or "" when err
// did not come from an AWS API call.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
