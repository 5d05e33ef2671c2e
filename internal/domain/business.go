package domain

// BusinessType identifies the kind of care-facility business being opened.
type BusinessType string

const (
	BusinessResidentialHome BusinessType = "residential_home"
	BusinessVisitingNursing BusinessType = "visiting_nursing"
	BusinessVisitingCare    BusinessType = "visiting_care"
)

// DefaultBusinessType is used when a request omits or misspells the type.
const DefaultBusinessType = BusinessResidentialHome

// BusinessTypeConfig carries the static per-type search phrasing and the
// keywords that mark a procedural step as out of scope for the applicant.
type BusinessTypeConfig struct {
	Name                    string
	SearchTerms             string
	JurisdictionSearchTerms string
	BlockKeywords           []string
}

var businessTypeConfigs = map[BusinessType]BusinessTypeConfig{
	BusinessResidentialHome: {
		Name:                    "住宅型有料老人ホーム",
		SearchTerms:             "住宅型有料老人ホーム 届出 設置 手引き",
		JurisdictionSearchTerms: "有料老人ホーム 届出 届出先 窓口",
		BlockKeywords:           []string{"建築確認", "指導事項", "完成検査"},
	},
	BusinessVisitingNursing: {
		Name:                    "訪問看護事業所",
		SearchTerms:             "訪問看護事業所 指定申請 開設 手引き 介護保険",
		JurisdictionSearchTerms: "訪問看護 指定申請 申請先 窓口 介護保険",
		BlockKeywords:           []string{},
	},
	BusinessVisitingCare: {
		Name:                    "訪問介護事業所",
		SearchTerms:             "訪問介護事業所 指定申請 開設 手引き 介護保険",
		JurisdictionSearchTerms: "訪問介護 指定申請 申請先 窓口 介護保険",
		BlockKeywords:           []string{},
	},
}

// NormalizeBusinessType maps a raw request value to a known business type,
// falling back to the default for empty or unrecognized values.
func NormalizeBusinessType(s string) BusinessType {
	bt := BusinessType(s)
	if _, ok := businessTypeConfigs[bt]; ok {
		return bt
	}
	return DefaultBusinessType
}

// Config returns the static configuration for the business type.
func (bt BusinessType) Config() BusinessTypeConfig {
	if cfg, ok := businessTypeConfigs[bt]; ok {
		return cfg
	}
	return businessTypeConfigs[DefaultBusinessType]
}

// DisplayName returns the Japanese display name for a raw business-type
// value. Unknown values pass through unchanged so exports never lose data.
func DisplayName(s string) string {
	if cfg, ok := businessTypeConfigs[BusinessType(s)]; ok {
		return cfg.Name
	}
	return s
}
