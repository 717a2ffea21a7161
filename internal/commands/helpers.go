package commands

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ppiankov/costspectre/internal/aws"
)

// enhanceError wraps an error with context and suggestions for common AWS issues.
func enhanceError(action string, err error) error {
	if hint := errorHint(err); hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func errorHint(err error) string {
	code := aws.ErrorCode(err)
	msg := err.Error()

	has := func(s ...string) bool {
		for _, v := range s {
			if code == v || strings.Contains(msg, v) {
				return true
			}
		}
		return false
	}

	switch {
	case has("NoCredentialProviders", "failed to retrieve credentials"):
		return "Configure AWS credentials: set AWS_PROFILE, AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, or run 'aws configure'"
	case has("ExpiredToken", "ExpiredTokenException"):
		return "AWS session token expired. Refresh credentials or run 'aws sso login'"
	case has("AccessDenied", "AccessDeniedException", "UnauthorizedOperation", "AuthorizationError"):
		return "Insufficient permissions. Apply the IAM policy from 'costspectre init' to your role/user"
	case has("RequestExpired"):
		return "Request expired. Check system clock synchronization"
	case has("Throttling", "ThrottlingException", "RequestLimitExceeded"):
		return "AWS API rate limit hit. Lower metric_concurrency or increase timeout"
	case has("no region configured"):
		return "Set a region with --region, AWS_REGION, or the region key in .costspectre.yaml"
	case has("NotFound") && strings.Contains(msg, "sns"):
		return "SNS topic not found. Check --topic-arn and the region"
	}
	return ""
}

// computeTargetHash generates a SHA256 hash for the target URI.
func computeTargetHash(profile, region string) string {
	input := fmt.Sprintf("profile:%s,region:%s", profile, region)
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("sha256:%x", h)
}
