package gemini

import (
	"context"
	"testing"

	"github.com/akolanti/cyberrag/internal/config"
)

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Model: "gemini-2.0-flash"}, "", nil); err == nil {
		t.Error("expected an error without an api key")
	}
}

func TestContentConfig(t *testing.T) {
	c := &Client{systemPrompt: "be brief", temperature: 0.3, maxTokens: 256}
	cfg := c.contentConfig()

	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction not set: %+v", cfg.SystemInstruction)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.3 {
		t.Errorf("temperature = %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 256 {
		t.Errorf("max tokens = %d", cfg.MaxOutputTokens)
	}

	bare := (&Client{}).contentConfig()
	if bare.SystemInstruction != nil || bare.MaxOutputTokens != 0 {
		t.Errorf("unexpected defaults: %+v", bare)
	}
}
