package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/daisuketominaga/shinsei/internal/domain"
	"github.com/daisuketominaga/shinsei/internal/jurisdiction"
	"github.com/daisuketominaga/shinsei/internal/normalize"
)

// DefaultAPIURL is the chat-completions endpoint of the AI search service.
const DefaultAPIURL = "https://api.perplexity.ai/chat/completions"

// DefaultModel is the search-backed model used for both pipeline phases.
const DefaultModel = "sonar-pro"

// fallbackDisclaimer is appended to the rule-based reason whenever the AI
// verification could not be completed or returned unusable data.
const fallbackDisclaimer = "（※公式サイト確認が行えなかったため、一般ルールに基づく判定）"

// residentialHomeCaution is injected into the detail prompt for residential
// homes to keep construction-side steps out of the procedure flow.
const residentialHomeCaution = "【注意】建築確認申請、指導事項への対応・改善報告、完成検査などテナントが関与しない工程は含めないでください。"

// Gateway abstracts the two AI search operations for testability.
type Gateway interface {
	// VerifyJurisdiction confirms the application destination. It never
	// fails: any upstream problem degrades to the rule-based decision with
	// a disclaimer appended to the reason.
	VerifyJurisdiction(ctx context.Context, prefecture, city string, bt domain.BusinessType) *domain.JurisdictionDecision
	// FetchApplicationDetails retrieves the procedure flow for the
	// confirmed jurisdiction. There is no safe synthetic procedure, so any
	// upstream failure is returned to the caller.
	FetchApplicationDetails(ctx context.Context, decision *domain.JurisdictionDecision, prefecture, city string, bt domain.BusinessType) (*domain.SearchResult, error)
}

// PerplexityClient implements Gateway over the chat-completions HTTP API.
type PerplexityClient struct {
	hc      *http.Client
	apiURL  string
	apiKey  string
	model   string
	prompts *PromptTemplates
}

// NewPerplexityClient creates a gateway client. The timeout bounds each of
// the two calls independently; the protocol has no client-side retry.
func NewPerplexityClient(apiKey, apiURL, model string, timeout time.Duration, prompts *PromptTemplates) *PerplexityClient {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &PerplexityClient{
		hc:      &http.Client{Timeout: timeout},
		apiURL:  apiURL,
		apiKey:  apiKey,
		model:   model,
		prompts: prompts,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatCompletion performs one synchronous chat-completion call and returns
// the assistant message content.
func (c *PerplexityClient) chatCompletion(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if content == "" {
		return "", fmt.Errorf("chat completion: response has no message content")
	}
	return content, nil
}

func (c *PerplexityClient) VerifyJurisdiction(ctx context.Context, prefecture, city string, bt domain.BusinessType) *domain.JurisdictionDecision {
	cfg := bt.Config()
	pre := jurisdiction.Resolve(bt, prefecture, city)

	vars := map[string]string{
		"prefecture":                prefecture,
		"city":                      city,
		"business_name":             cfg.Name,
		"jurisdiction_search_terms": cfg.JurisdictionSearchTerms,
		"pre_judgment_reason":       pre.Reason,
	}
	system := RenderTemplate(c.prompts.VerifySystem, vars)
	query := RenderTemplate(c.prompts.VerifyQuery, vars)

	content, err := c.chatCompletion(ctx, system, query)
	if err != nil {
		slog.WarnContext(ctx, "jurisdiction verification unavailable, using rule-based decision", "error", err)
		return withDisclaimer(pre)
	}

	raw := StripCodeFence(content)
	if !gjson.Valid(raw) {
		slog.WarnContext(ctx, "jurisdiction verification returned invalid JSON, using rule-based decision",
			"raw", truncate(raw, 200))
		return withDisclaimer(pre)
	}

	doc := gjson.Parse(raw)
	jur := doc.Get("jurisdiction")
	isCity := doc.Get("is_city")
	reason := doc.Get("reason")
	if jur.String() == "" || !isBool(isCity) || reason.String() == "" {
		slog.WarnContext(ctx, "jurisdiction verification missing required fields, using rule-based decision",
			"raw", truncate(raw, 200))
		return withDisclaimer(pre)
	}

	return &domain.JurisdictionDecision{
		Jurisdiction: jur.String(),
		IsCity:       isCity.Bool(),
		Reason:       reason.String(),
		SourceURL:    doc.Get("source_url").String(),
	}
}

func (c *PerplexityClient) FetchApplicationDetails(ctx context.Context, decision *domain.JurisdictionDecision, prefecture, city string, bt domain.BusinessType) (*domain.SearchResult, error) {
	cfg := bt.Config()

	caution := ""
	if bt == domain.BusinessResidentialHome {
		caution = residentialHomeCaution
	}

	vars := map[string]string{
		"prefecture":          prefecture,
		"city":                city,
		"business_name":       cfg.Name,
		"search_terms":        cfg.SearchTerms,
		"jurisdiction":        decision.Jurisdiction,
		"jurisdiction_reason": decision.Reason,
		"caution":             caution,
	}
	system := RenderTemplate(c.prompts.DetailSystem, vars)
	query := RenderTemplate(c.prompts.DetailQuery, vars)

	content, err := c.chatCompletion(ctx, system, query)
	if err != nil {
		return nil, domain.NewUpstreamError("詳細情報の取得に失敗しました", err)
	}

	raw := StripCodeFence(content)
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		return nil, domain.NewUpstreamError("詳細情報が取得できませんでした", fmt.Errorf("response is not a JSON object: %s", truncate(raw, 200)))
	}

	// The confirmed decision is authoritative: the normalizer overwrites
	// whatever jurisdiction the AI echoed back.
	return normalize.Result(raw, decision, cfg)
}

func withDisclaimer(pre *domain.JurisdictionDecision) *domain.JurisdictionDecision {
	return &domain.JurisdictionDecision{
		Jurisdiction: pre.Jurisdiction,
		IsCity:       pre.IsCity,
		Reason:       pre.Reason + fallbackDisclaimer,
	}
}

func isBool(v gjson.Result) bool {
	return v.Type == gjson.True || v.Type == gjson.False
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
