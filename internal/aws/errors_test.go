package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestErrorCode(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error", apiErr, "AccessDenied"},
		{"wrapped", fmt.Errorf("describe instances: %w", apiErr), "AccessDenied"},
		{"plain", errors.New("boom"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
