package providerError

import (
	"errors"
	"testing"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"genai quota", genai.APIError{Code: 429, Message: "quota"}, commonModels.ErrProviderQuota},
		{"genai auth", genai.APIError{Code: 403, Message: "denied"}, commonModels.ErrProviderAuth},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "slow down"), commonModels.ErrProviderQuota},
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "who"), commonModels.ErrProviderAuth},
	}

	for _, tt := range tests {
		got := Classify("google", tt.err)
		if !errors.Is(got, tt.want) {
			t.Errorf("%s: Classify = %v; want %v", tt.name, got, tt.want)
		}
		if !errors.Is(got, tt.err) {
			t.Errorf("%s: original error lost", tt.name)
		}
	}
}

func TestClassify_PassThrough(t *testing.T) {
	if Classify("google", nil) != nil {
		t.Error("nil must stay nil")
	}
	plain := errors.New("connection reset")
	got := Classify("openai", plain)
	if errors.Is(got, commonModels.ErrProviderQuota) || errors.Is(got, commonModels.ErrProviderAuth) {
		t.Errorf("plain error misclassified: %v", got)
	}
	if !errors.Is(got, plain) {
		t.Error("cause must be wrapped")
	}
}
