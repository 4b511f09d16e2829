package aiscan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const statsPromptFmt = `Generate balanced game stats for a character named %q based on this description: %q.
Ensure multipliers (str_mul_in, agi_mul_in, sta_mul_in) are between 0.1 and 2.0.
Respond with a single JSON object only, no prose, using the keys:
name, type, release, str_init, agi_init, sta_init, str_mul_in, agi_mul_in, sta_mul_in, bmv_str, bmv_agi, bmv_sta, chinese.`

const imagePromptSingle = `This is a screenshot of a game character card. Extract the character data.
Multipliers usually appear as parenthetical gains, e.g. "+0.65" means 0.65.
Breakpoint values appear as thresholds, e.g. "Every 17 points of Strength" means 17.
Respond with a single JSON object only, no prose, using the keys:
name, type, release, str_init, agi_init, sta_init, str_mul_in, agi_mul_in, sta_mul_in, bmv_str, bmv_agi, bmv_sta, chinese.`

const imagePromptBatch = `These are screenshots of game character cards, one card per image, in order.
Multipliers usually appear as parenthetical gains, e.g. "+0.65" means 0.65.
Breakpoint values appear as thresholds, e.g. "Every 17 points of Strength" means 17.
Respond with a single JSON array only, no prose, one object per image in the same order, each using the keys:
name, type, release, str_init, agi_init, sta_init, str_mul_in, agi_mul_in, sta_mul_in, bmv_str, bmv_agi, bmv_sta, chinese.`

// AnthropicExtractor implements Extractor on top of the Anthropic Messages API.
type AnthropicExtractor struct {
	client anthropic.Client
	model  string
}

func NewAnthropicExtractor(apiKey, model string) *AnthropicExtractor {
	return &AnthropicExtractor{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (e *AnthropicExtractor) GenerateStats(ctx context.Context, name, description string) (Guess, error) {
	prompt := fmt.Sprintf(statsPromptFmt, name, description)
	text, err := e.complete(ctx, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
	if err != nil {
		return nil, err
	}
	return decodeGuess(text)
}

func (e *AnthropicExtractor) ExtractImage(ctx context.Context, imageBase64 string) (Guess, error) {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewImageBlockBase64("image/png", stripDataURL(imageBase64)),
		anthropic.NewTextBlock(imagePromptSingle),
	}
	text, err := e.complete(ctx, anthropic.NewUserMessage(blocks...))
	if err != nil {
		return nil, err
	}
	return decodeGuess(text)
}

func (e *AnthropicExtractor) ExtractImages(ctx context.Context, imagesBase64 []string) ([]Guess, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(imagesBase64)+1)
	for _, img := range imagesBase64 {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", stripDataURL(img)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(imagePromptBatch))
	text, err := e.complete(ctx, anthropic.NewUserMessage(blocks...))
	if err != nil {
		return nil, err
	}
	return decodeGuessList(text)
}

func (e *AnthropicExtractor) complete(ctx context.Context, msg anthropic.MessageParam) (string, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 2048,
		Messages:  []anthropic.MessageParam{msg},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// decodeGuess tolerates prose around the JSON by cutting to the outermost
// object delimiters before unmarshalling.
func decodeGuess(text string) (Guess, error) {
	raw, err := sliceJSON(text, '{', '}')
	if err != nil {
		return nil, err
	}
	var g Guess
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	return g, nil
}

func decodeGuessList(text string) ([]Guess, error) {
	raw, err := sliceJSON(text, '[', ']')
	if err != nil {
		return nil, err
	}
	var gs []Guess
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		return nil, fmt.Errorf("decode extraction list: %w", err)
	}
	return gs, nil
}

func sliceJSON(text string, open, close byte) (string, error) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON payload in model response")
	}
	return text[start : end+1], nil
}
