package domain

// JurisdictionDecision names the government body that receives the
// application. The rule-based resolver and the AI verification step both
// produce this shape, so one can substitute for the other.
type JurisdictionDecision struct {
	Jurisdiction string `json:"jurisdiction"`
	IsCity       bool   `json:"is_city"`
	Reason       string `json:"reason"`
	SourceURL    string `json:"source_url,omitempty"`
}

// FlowStep is one chronological stage of the application procedure together
// with the documents it requires.
type FlowStep struct {
	Step      string   `json:"step"`
	Documents []string `json:"documents"`
}

// SearchResult is the JSON response for POST /api/search.
type SearchResult struct {
	Jurisdiction       string     `json:"jurisdiction"`
	JurisdictionDetail string     `json:"jurisdiction_detail,omitempty"`
	Flow               []FlowStep `json:"flow"`
	Summary            string     `json:"summary"`
	ReferenceURL       string     `json:"reference_url,omitempty"`
	ReferenceName      string     `json:"reference_name,omitempty"`
	GuidelineURL       string     `json:"guideline_url,omitempty"`
	GuidelineName      string     `json:"guideline_name,omitempty"`
}

// HistoryRecord is a persisted search result plus its request parameters and
// the reviewer's checklist state.
type HistoryRecord struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Timestamp          string     `json:"timestamp"`
	BusinessType       string     `json:"business_type"`
	Prefecture         string     `json:"prefecture"`
	City               string     `json:"city"`
	Jurisdiction       string     `json:"jurisdiction"`
	JurisdictionDetail string     `json:"jurisdiction_detail,omitempty"`
	Summary            string     `json:"summary"`
	ReferenceURL       string     `json:"reference_url,omitempty"`
	ReferenceName      string     `json:"reference_name,omitempty"`
	GuidelineURL       string     `json:"guideline_url,omitempty"`
	GuidelineName      string     `json:"guideline_name,omitempty"`
	Flow               []FlowStep `json:"flow"`
	CheckedSteps       []int      `json:"checked_steps"`
}

// HistoryListResponse is the JSON response for GET /api/history.
type HistoryListResponse struct {
	History []HistoryRecord `json:"history"`
}

// MutationResponse acknowledges a history or export mutation.
type MutationResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *HistoryRecord `json:"data,omitempty"`
}

// ErrorResponse is used for non-200 error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
