package nutrition

import "github.com/limbo/lumi/pkg/entity"

const (
	// BalanceThreshold is the share of a daily target that counts as met.
	BalanceThreshold = 0.8

	// summed decimal grams land a few ulps off the exact value
	thresholdEpsilon = 1e-9
)

// IsBalanced reports whether both protein and fiber reached the threshold.
// One axis far above target does not compensate for the other.
func IsBalanced(record entity.DailyRecord, needs entity.NutritionalNeeds) bool {
	proteinMet := reached(record.TotalProtein, ProteinThreshold(needs))
	fiberMet := reached(record.TotalFiber, FiberThreshold(needs))
	return proteinMet && fiberMet
}

func reached(total, threshold float64) bool {
	return total >= threshold-thresholdEpsilon
}

func ProteinThreshold(needs entity.NutritionalNeeds) float64 {
	return float64(needs.DailyProteinG) * BalanceThreshold
}

func FiberThreshold(needs entity.NutritionalNeeds) float64 {
	return float64(needs.DailyFiberG) * BalanceThreshold
}

// Annotate pairs every record with its balance flag. A nil needs marks
// every day unbalanced.
func Annotate(records []entity.DailyRecord, needs *entity.NutritionalNeeds) []entity.DailyProgress {
	out := make([]entity.DailyProgress, 0, len(records))
	for _, r := range records {
		p := entity.DailyProgress{DailyRecord: r}
		if needs != nil {
			p.IsBalanced = IsBalanced(r, *needs)
		}
		out = append(out, p)
	}
	return out
}
