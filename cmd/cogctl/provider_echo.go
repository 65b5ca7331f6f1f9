package main

import (
	"context"
	"strings"

	"github.com/nextlevelbuilder/cogcore/internal/providers"
)

// echoProvider is a deterministic, offline stand-in for a real model
// backend: concrete HTTP transports are out of scope for this module, so
// `cogctl run` needs some providers.Provider to exercise the loop without
// one. It never requests tool calls, so a standalone session behaves like
// a plain echo chat — useful for smoke-testing the session/memory/journal
// plumbing without a configured API key.
type echoProvider struct {
	model string
}

func newEchoProvider(model string) *echoProvider {
	if model == "" {
		model = "echo"
	}
	return &echoProvider{model: model}
}

func (p *echoProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}
	return &providers.ChatResponse{
		Content:      "echo: " + strings.TrimSpace(last),
		FinishReason: "stop",
	}, nil
}

func (p *echoProvider) ChatStream(ctx context.Context, req providers.ChatRequest, onChunk func(providers.StreamChunk)) (*providers.ChatResponse, error) {
	resp, err := p.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	onChunk(providers.StreamChunk{Content: resp.Content, Done: true})
	return resp, nil
}

func (p *echoProvider) DefaultModel() string { return p.model }
func (p *echoProvider) Name() string         { return "echo" }
