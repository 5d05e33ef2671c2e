// Package normalize repairs the untrusted detail-fetch payload into the
// stable SearchResult contract: legacy shapes are migrated, blocked steps
// are dropped, and missing reference fields are back-filled.
package normalize

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/daisuketominaga/shinsei/internal/domain"
)

// Result validates and sanitizes a raw JSON payload. The confirmed decision
// overwrites the jurisdiction fields regardless of what the payload carries.
// The payload is treated as semi-trusted: required fields are rejected when
// invalid, optional fields are coerced to safe defaults.
func Result(raw string, decision *domain.JurisdictionDecision, cfg domain.BusinessTypeConfig) (*domain.SearchResult, error) {
	doc := gjson.Parse(raw)

	flow := doc.Get("flow")
	summary := strings.TrimSpace(doc.Get("summary").String())
	if !flow.IsArray() || summary == "" {
		return nil, domain.NewMalformedError("検索結果の形式が正しくありません")
	}

	res := &domain.SearchResult{
		Jurisdiction:       decision.Jurisdiction,
		JurisdictionDetail: decision.Reason,
		Flow:               normalizeFlow(doc, flow, cfg.BlockKeywords),
		Summary:            summary,
		ReferenceURL:       doc.Get("reference_url").String(),
		ReferenceName:      doc.Get("reference_name").String(),
		GuidelineURL:       doc.Get("guideline_url").String(),
		GuidelineName:      doc.Get("guideline_name").String(),
	}

	backfillReferences(res, decision.Jurisdiction)
	return res, nil
}

// normalizeFlow migrates legacy string-array flows, drops blocked or
// step-less entries, and coerces malformed document lists. Step order is
// preserved: it represents chronological procedure order.
func normalizeFlow(doc, flow gjson.Result, blockKeywords []string) []domain.FlowStep {
	items := flow.Array()

	// Legacy producers emit flow as a flat string array with a single
	// top-level documents list, which belongs to the first step.
	legacy := len(items) > 0 && items[0].Type == gjson.String
	legacyDocs := stringSlice(doc.Get("documents"))

	steps := make([]domain.FlowStep, 0, len(items))
	for i, item := range items {
		var step domain.FlowStep
		switch {
		case item.Type == gjson.String:
			step.Step = item.String()
			if legacy && i == 0 {
				step.Documents = legacyDocs
			}
		case item.IsObject():
			step.Step = item.Get("step").String()
			step.Documents = stringSlice(item.Get("documents"))
		default:
			continue
		}

		if step.Step == "" || containsBlocked(step.Step, blockKeywords) {
			continue
		}
		if step.Documents == nil {
			step.Documents = []string{}
		}
		steps = append(steps, step)
	}
	return steps
}

func containsBlocked(step string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(step, kw) {
			return true
		}
	}
	return false
}

// backfillReferences fills the guideline fields from the reference fields
// when absent and synthesizes default source names. Applying it to an
// already-normalized result changes nothing.
func backfillReferences(res *domain.SearchResult, jurisdiction string) {
	if res.GuidelineURL == "" && res.ReferenceURL != "" {
		res.GuidelineURL = res.ReferenceURL
		res.GuidelineName = res.ReferenceName
		if res.GuidelineName == "" {
			res.GuidelineName = jurisdiction + "公式情報"
		}
	}
	if res.GuidelineName == "" && res.GuidelineURL != "" {
		res.GuidelineName = jurisdiction + "公式ガイドライン"
	}
	if res.ReferenceName == "" && res.ReferenceURL != "" {
		res.ReferenceName = "参考情報"
	}
}

// stringSlice coerces a JSON value to a list of strings. Anything that is
// not an array of scalars collapses to an empty list rather than an error.
func stringSlice(v gjson.Result) []string {
	if !v.IsArray() {
		return []string{}
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch it.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			out = append(out, it.String())
		}
	}
	return out
}
