package api

import (
	"fmt"

	"github.com/adscope/adscope/internal/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// KnownPlatform reports whether the platform is one the normalizer
// understands.
func KnownPlatform(p models.Platform) bool {
	switch p {
	case models.PlatformFacebook, models.PlatformInstagram, models.PlatformTikTok, models.PlatformGeneric:
		return true
	}
	return false
}

// ValidateAuditRequest validates the body of an audit run request.
func ValidateAuditRequest(req *RunAuditRequest) error {
	if req.ClientName == "" {
		return ValidationError{Field: "client_name", Message: "client name is required"}
	}

	if len(req.ClientName) > 255 {
		return ValidationError{Field: "client_name", Message: "client name too long"}
	}

	if req.Platform == "" {
		req.Platform = models.PlatformFacebook
	}
	if !KnownPlatform(req.Platform) {
		return ValidationError{Field: "platform", Message: fmt.Sprintf("unknown platform %q", req.Platform)}
	}

	if req.Data == nil {
		return ValidationError{Field: "data", Message: "account data payload is required"}
	}

	if req.CacheLookbackDays < 0 {
		return ValidationError{Field: "cache_lookback_days", Message: "lookback days must not be negative"}
	}

	return nil
}
