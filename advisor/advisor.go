// Package advisor asks a Gemini model for a tactical review of the portfolio.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/kite"
	"google.golang.org/genai"
)

// Defaults of an Advisor.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 800
)

var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("系統環境未偵測到有效的 API Key")
	// ErrEmptyAdvice is returned when the model answers without text.
	ErrEmptyAdvice = errors.New("AI 回傳內容為空")
)

// Generator is the part of the Gemini API used by the advisor. *genai.Models
// implements it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Advisor produces investment advice.
type Advisor struct {
	gen         Generator
	model       string
	temperature float32
	maxTokens   int32
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(a *Advisor) {
		if model != "" {
			a.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(a *Advisor) { a.temperature = t }
}

// WithMaxTokens sets the maximum length of the answer.
func WithMaxTokens(n int32) Option {
	return func(a *Advisor) { a.maxTokens = n }
}

// New creates an Advisor on top of gen.
func New(gen Generator, opts ...Option) *Advisor {
	a := &Advisor{
		gen:         gen,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dial creates an Advisor backed by the Gemini API. It fails with ErrNoAPIKey
// without any network call when apiKey is empty.
func Dial(ctx context.Context, apiKey string, opts ...Option) (*Advisor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot initialize Gemini's client: %w", err)
	}
	return New(client.Models, opts...), nil
}

// Advise returns the model advice on the portfolio.
func (a *Advisor) Advise(ctx context.Context, p kite.Portfolio) (string, error) {
	if a.gen == nil {
		return "", ErrNoAPIKey
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(a.temperature),
		MaxOutputTokens: a.maxTokens,
	}
	resp, err := a.gen.GenerateContent(ctx, a.model, genai.Text(Prompt(p)), config)
	if err != nil {
		return "", err
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyAdvice
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// Explain turns an Advise error into the message shown to the user.
func Explain(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Requested entity was not found"):
		return "【系統提示】：API 金鑰權限異常或專案未設定，請確認您的 API Key 是否具備所選模型的使用權限。"
	case strings.Contains(msg, "API key not valid"):
		return "【系統提示】：API Key 無效或已過期，請重新檢查環境變數設定。"
	}
	return fmt.Sprintf("AI 顧問目前無法提供即時分析（錯誤原因：%s）。", msg)
}
