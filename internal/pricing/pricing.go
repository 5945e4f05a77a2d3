package pricing

import (
	"fmt"
	"math"

	"github.com/zapshift/zapshift/internal/models"
	"github.com/pkg/errors"
)

// Тарифная сетка в таках. Менять синхронно с прайсом на лендинге.
const (
	documentSameDistrict  = 60
	documentCrossDistrict = 80

	nonDocumentSameDistrict  = 110
	nonDocumentCrossDistrict = 150

	includedWeightKg   = 3.0
	perExtraKgCharge   = 40
	crossDistrictExtra = 40
)

var (
	ErrUnknownType   = errors.New("pricing: unknown parcel type")
	ErrInvalidWeight = errors.New("pricing: weight must be a non-negative number")
)

// Quote is a cost breakdown for one delivery. TotalCost is the value
// persisted as the parcel's cost at booking time; Breakdown is
// presentation-only and never feeds back into any calculation.
type Quote struct {
	BaseCost  float64 `json:"baseCost"`
	ExtraCost float64 `json:"extraCost"`
	TotalCost float64 `json:"totalCost"`
	Breakdown string  `json:"breakdown"`
}

// ComputeDeliveryCost converts parcel attributes into a cost quote.
// Pure and deterministic: no I/O, same inputs always produce the same
// quote, so it is safe to call per keystroke for a live preview.
//
// Weight is ignored for documents. The 3kg boundary is inclusive on
// the cheap side: exactly 3kg takes the no-extra-cost branch.
func ComputeDeliveryCost(parcelType string, weight float64, isSameDistrict bool) (Quote, error) {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return Quote{}, errors.Wrapf(ErrInvalidWeight, "got %v", weight)
	}

	var q Quote
	switch parcelType {
	case models.ParcelTypeDocument:
		q.BaseCost = documentCrossDistrict
		if isSameDistrict {
			q.BaseCost = documentSameDistrict
		}
		q.Breakdown = fmt.Sprintf("Document delivery %s the district.", zone(isSameDistrict))

	case models.ParcelTypeNonDocument:
		q.BaseCost = nonDocumentCrossDistrict
		if isSameDistrict {
			q.BaseCost = nonDocumentSameDistrict
		}
		if weight <= includedWeightKg {
			q.Breakdown = fmt.Sprintf("Non-document up to 3kg %s the district.", zone(isSameDistrict))
			break
		}

		extraKg := weight - includedWeightKg
		perKgCharge := extraKg * perExtraKgCharge
		districtExtra := 0.0
		if !isSameDistrict {
			districtExtra = crossDistrictExtra
		}
		q.ExtraCost = perKgCharge + districtExtra

		q.Breakdown = fmt.Sprintf("Non-document over 3kg %s the district. Extra charge: %d x %.1fkg = %.0f.",
			zone(isSameDistrict), perExtraKgCharge, extraKg, perKgCharge)
		if districtExtra > 0 {
			q.Breakdown += fmt.Sprintf(" Plus %.0f extra for outside district delivery.", districtExtra)
		}

	default:
		// Никогда молча не уходим в дефолтную ветку: это была бы
		// неправильная цена реальной транзакции.
		return Quote{}, errors.Wrapf(ErrUnknownType, "got %q", parcelType)
	}

	q.TotalCost = q.BaseCost + q.ExtraCost
	return q, nil
}

func zone(sameDistrict bool) string {
	if sameDistrict {
		return "within"
	}
	return "outside"
}
