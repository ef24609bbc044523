// Package factory builds the reply generator and judge from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/llm"
	"github.com/kiranshivaraju/replysim/internal/llm/anthropic"
	"github.com/kiranshivaraju/replysim/internal/llm/gemini"
	"github.com/kiranshivaraju/replysim/internal/llm/mock"
	"github.com/kiranshivaraju/replysim/internal/llm/openai"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

// NewCompleter constructs the transport for a single provider name.
func NewCompleter(ctx context.Context, provider string, cfg config.LLMConfig) (llm.Completer, error) {
	switch provider {
	case "openai":
		return openai.NewProvider("openai", cfg.OpenAI, cfg.InferenceTimeout), nil
	case "ollama":
		return openai.NewProvider("ollama", cfg.Ollama, cfg.InferenceTimeout), nil
	case "vllm":
		return openai.NewProvider("vllm", cfg.VLLM, cfg.InferenceTimeout), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, cfg.InferenceTimeout), nil
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini)
	default:
		return nil, fmt.Errorf("unknown llm provider %q: must be one of openai, vllm, ollama, anthropic, gemini, mock", provider)
	}
}

// ProviderNames resolves the generator and judge provider names. An unset
// judge falls back to the generator.
func ProviderNames(cfg config.LLMConfig) (generator, judge string) {
	judge = cfg.JudgeProvider
	if judge == "" {
		judge = cfg.GeneratorProvider
	}
	return cfg.GeneratorProvider, judge
}

// NewProviders returns the generator and judge selected by cfg. Called once at
// startup; both values are shared by every task in a batch.
func NewProviders(ctx context.Context, cfg config.LLMConfig) (models.ReplyGenerator, models.ReplyJudge, error) {
	_, judgeProvider := ProviderNames(cfg)

	generator, err := newGenerator(ctx, cfg.GeneratorProvider, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("generator: %w", err)
	}

	if judgeProvider == cfg.GeneratorProvider {
		if j, ok := generator.(models.ReplyJudge); ok {
			return generator, j, nil
		}
	}

	judge, err := newJudge(ctx, judgeProvider, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("judge: %w", err)
	}
	return generator, judge, nil
}

func newGenerator(ctx context.Context, provider string, cfg config.LLMConfig) (models.ReplyGenerator, error) {
	if provider == "mock" {
		return mock.NewGenerator(), nil
	}
	c, err := NewCompleter(ctx, provider, cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(c), nil
}

func newJudge(ctx context.Context, provider string, cfg config.LLMConfig) (models.ReplyJudge, error) {
	if provider == "mock" {
		return mock.NewJudge(7), nil
	}
	c, err := NewCompleter(ctx, provider, cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(c), nil
}
