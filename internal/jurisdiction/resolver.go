package jurisdiction

import (
	"fmt"
	"strings"

	"github.com/daisuketominaga/shinsei/internal/domain"
)

// 神奈川県の訪問看護/訪問介護は、以下の4市以外は県が申請先となる。
// This list is maintained independently of the general city tables.
var kanagawaSpecialCities = []string{"横浜市", "川崎市", "相模原市", "横須賀市"}

const kanagawaPrefecture = "神奈川県"

// Resolve computes the rule-based jurisdiction decision. It never fails and
// performs no I/O, so it can always stand in for the AI verification step.
func Resolve(bt domain.BusinessType, prefecture, city string) *domain.JurisdictionDecision {
	if (bt == domain.BusinessVisitingNursing || bt == domain.BusinessVisitingCare) && prefecture == kanagawaPrefecture {
		return resolveKanagawa(prefecture, city)
	}
	return resolveGeneral(prefecture, city)
}

// resolveKanagawa applies the prefecture-specific carve-out: only the four
// listed cities keep their own designation authority for visiting services,
// regardless of how the general tables would classify the municipality.
func resolveKanagawa(prefecture, city string) *domain.JurisdictionDecision {
	for _, c := range kanagawaSpecialCities {
		if c == city || strings.Contains(city, c) {
			return &domain.JurisdictionDecision{
				Jurisdiction: city,
				IsCity:       true,
				Reason:       fmt.Sprintf("%sは政令指定都市（横浜/川崎/相模原）または中核市（横須賀）に該当するため市が申請先です。", city),
			}
		}
	}
	return &domain.JurisdictionDecision{
		Jurisdiction: prefecture,
		IsCity:       false,
		Reason:       fmt.Sprintf("%sは政令指定都市・中核市ではないため%sが申請先です。", city, prefecture),
	}
}

func resolveGeneral(prefecture, city string) *domain.JurisdictionDecision {
	switch Classify(city) {
	case DesignatedCity:
		return &domain.JurisdictionDecision{
			Jurisdiction: city,
			IsCity:       true,
			Reason:       fmt.Sprintf("%sは政令指定都市のため、市が指定権者となります", city),
		}
	case CoreCity:
		return &domain.JurisdictionDecision{
			Jurisdiction: city,
			IsCity:       true,
			Reason:       fmt.Sprintf("%sは中核市のため、市が指定権者となります", city),
		}
	default:
		return &domain.JurisdictionDecision{
			Jurisdiction: prefecture,
			IsCity:       false,
			Reason:       fmt.Sprintf("%sは政令指定都市・中核市ではないため、%sが指定権者となります", city, prefecture),
		}
	}
}
