package domain

import "strings"

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	Prefecture   string `json:"prefecture"`
	City         string `json:"city"`
	BusinessType string `json:"businessType"`
}

// Validate trims the location fields and checks them. The business type is
// normalized rather than rejected: unknown values fall back to the default.
func (r *SearchRequest) Validate() error {
	r.Prefecture = strings.TrimSpace(r.Prefecture)
	r.City = strings.TrimSpace(r.City)
	if r.Prefecture == "" {
		return NewValidationError("都道府県名が指定されていません")
	}
	if r.City == "" {
		return NewValidationError("市区町村名が指定されていません")
	}
	return nil
}

// Type returns the normalized business type for the request.
func (r *SearchRequest) Type() BusinessType {
	return NormalizeBusinessType(r.BusinessType)
}

// HistoryUpsertRequest is the JSON body for POST /api/history. Field names
// follow the client-side camelCase convention.
type HistoryUpsertRequest struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	BusinessType       string     `json:"businessType"`
	Prefecture         string     `json:"prefecture"`
	City               string     `json:"city"`
	Jurisdiction       string     `json:"jurisdiction"`
	JurisdictionDetail string     `json:"jurisdictionDetail"`
	Summary            string     `json:"summary"`
	ReferenceURL       string     `json:"referenceUrl"`
	ReferenceName      string     `json:"referenceName"`
	GuidelineURL       string     `json:"guidelineUrl"`
	GuidelineName      string     `json:"guidelineName"`
	Flow               []FlowStep `json:"flow"`
	CheckedSteps       []int      `json:"checkedSteps"`
}

// Record converts the request into a persistable history record.
func (r *HistoryUpsertRequest) Record() *HistoryRecord {
	userID := r.UserID
	if userID == "" {
		userID = "anonymous"
	}
	checked := r.CheckedSteps
	if checked == nil {
		checked = []int{}
	}
	flow := r.Flow
	if flow == nil {
		flow = []FlowStep{}
	}
	return &HistoryRecord{
		ID:                 r.ID,
		UserID:             userID,
		BusinessType:       r.BusinessType,
		Prefecture:         r.Prefecture,
		City:               r.City,
		Jurisdiction:       r.Jurisdiction,
		JurisdictionDetail: r.JurisdictionDetail,
		Summary:            r.Summary,
		ReferenceURL:       r.ReferenceURL,
		ReferenceName:      r.ReferenceName,
		GuidelineURL:       r.GuidelineURL,
		GuidelineName:      r.GuidelineName,
		Flow:               flow,
		CheckedSteps:       checked,
	}
}

// CheckedStepsRequest is the JSON body for PATCH /api/history.
type CheckedStepsRequest struct {
	ID           string `json:"id"`
	CheckedSteps []int  `json:"checkedSteps"`
}

// ExportRequest is the JSON body for POST /api/export.
type ExportRequest struct {
	BusinessType       string `json:"businessType"`
	Prefecture         string `json:"prefecture"`
	City               string `json:"city"`
	Jurisdiction       string `json:"jurisdiction"`
	JurisdictionDetail string `json:"jurisdictionDetail"`
	Summary            string `json:"summary"`
	GuidelineURL       string `json:"guidelineUrl"`
}
