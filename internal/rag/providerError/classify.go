package providerError

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Classify wraps a provider failure with ErrProviderQuota or ErrProviderAuth when the status says so.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, commonModels.ErrProviderQuota) || errors.Is(err, commonModels.ErrProviderAuth) {
		return err
	}

	switch statusCode(err) {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w", provider, commonModels.ErrProviderQuota, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %w", provider, commonModels.ErrProviderAuth, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) && openaiErr != nil {
		return openaiErr.StatusCode
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return http.StatusTooManyRequests
		case codes.Unauthenticated:
			return http.StatusUnauthorized
		case codes.PermissionDenied:
			return http.StatusForbidden
		}
	}
	return 0
}
