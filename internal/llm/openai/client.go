package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
)

// Summarize implements llm.Summarizer. Any failure yields llm.NoSummary.
func (c *Client) Summarize(ctx context.Context, text, task string) string {
	text = llm.BuildUserPrompt(text, c.cfg.MaxInputChars)
	if text == "" {
		return llm.NoSummary
	}
	content, err := c.complete(ctx, "summarize", llm.BuildSystemPrompt(task), text, llm.SummaryJSONSchema(), func(raw []byte) ([]byte, error) {
		b, _, err := llm.NormalizeSummaryJSON(raw)
		return b, err
	})
	if err != nil {
		return llm.NoSummary
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(content, &out); err != nil || strings.TrimSpace(out.Summary) == "" {
		return llm.NoSummary
	}
	return strings.TrimSpace(out.Summary)
}

// DetectLanguage implements llm.LanguageDetector. Any failure yields llm.UnknownLanguage.
func (c *Client) DetectLanguage(ctx context.Context, text string) string {
	text = llm.BuildUserPrompt(text, c.cfg.MaxInputChars)
	if text == "" {
		return llm.UnknownLanguage
	}
	content, err := c.complete(ctx, "language", llm.LanguageSystemPrompt(), text, llm.LanguageJSONSchema(), nil)
	if err != nil {
		return llm.UnknownLanguage
	}
	var out struct {
		Language string `json:"language"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		return llm.UnknownLanguage
	}
	return llm.CanonicalLanguage(out.Language)
}

// Entities implements llm.EntityRecognizer. Any failure yields no entities.
func (c *Client) Entities(ctx context.Context, text string) []llm.Entity {
	text = llm.BuildUserPrompt(text, c.cfg.MaxInputChars)
	if text == "" {
		return nil
	}
	content, err := c.complete(ctx, "entities", llm.EntitiesSystemPrompt(), text, llm.EntitiesJSONSchema(), func(raw []byte) ([]byte, error) {
		b, _, err := llm.NormalizeEntitiesJSON(raw, c.logger)
		return b, err
	})
	if err != nil {
		return nil
	}
	var out struct {
		Entities []llm.Entity `json:"entities"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		return nil
	}
	return out.Entities
}

// complete runs one chat completion and returns the message content once it
// validates against schema. When strict validation fails and sanitize is set,
// the sanitized content is validated again before giving up.
func (c *Client) complete(ctx context.Context, op, system, user string, schema map[string]any, sanitize func([]byte) ([]byte, error)) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := common.LoggerFromContext(ctx, c.logger)

	log.Debug("llm."+op+".start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(user),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.cfg.Retries, log)
	if err != nil {
		log.Error("llm."+op+".http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.CollaboratorError("openai "+op, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		log.Error("llm."+op+".decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.CollaboratorError("openai "+op, fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		log.Error("llm."+op+".no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.CollaboratorError("openai "+op, fmt.Errorf("no choices in openai response"))
	}
	content := []byte(llm.StripCodeFence(cc.Choices[0].Message.Content))

	// Validate strictly first.
	if err := common.ValidateJSONAgainstSchema(schema, content); err != nil {
		if sanitize == nil {
			log.Error("llm."+op+".schema_validation_failed",
				"req_id", rid, "error", err, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, common.CollaboratorError("openai "+op, err)
		}
		cleaned, sErr := sanitize(content)
		if sErr != nil {
			log.Error("llm."+op+".sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, common.CollaboratorError("openai "+op, sErr)
		}
		if vErr := common.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			log.Error("llm."+op+".schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, common.CollaboratorError("openai "+op, vErr)
		}
		log.Warn("llm."+op+".lenient_sanitize_applied",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		content = cleaned
	}

	log.Info("llm."+op+".ok",
		"req_id", rid,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
