package nutrition

import (
	"fmt"
	"math"

	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
)

func ValidSlot(slot entity.MealSlot) bool {
	switch slot {
	case entity.MealBreakfast, entity.MealLunch, entity.MealDinner:
		return true
	}
	return false
}

func CheckMeal(m entity.MealEntry) error {
	if !ValidSlot(m.Type) {
		return fmt.Errorf("%w: unknown meal type %q", errorvalues.ErrInvalidMeal, m.Type)
	}
	if m.Protein < 0 || m.Fiber < 0 || math.IsNaN(m.Protein) || math.IsNaN(m.Fiber) ||
		math.IsInf(m.Protein, 0) || math.IsInf(m.Fiber, 0) {
		return fmt.Errorf("%w: protein and fiber must be non-negative", errorvalues.ErrInvalidMeal)
	}
	return nil
}

// UpsertMeal replaces the entry for m's slot, or appends it when the slot is
// still empty, and recomputes the totals.
func UpsertMeal(rec *entity.DailyRecord, m entity.MealEntry) {
	Normalize(rec)
	for i := range rec.Meals {
		if rec.Meals[i].Type == m.Type {
			rec.Meals[i] = m
			RecomputeTotals(rec)
			return
		}
	}
	rec.Meals = append(rec.Meals, m)
	RecomputeTotals(rec)
}

// Normalize collapses duplicate slot entries (records written by older
// append-only servers) keeping the last one, then recomputes totals.
func Normalize(rec *entity.DailyRecord) {
	if rec.Meals == nil {
		rec.Meals = []entity.MealEntry{}
	}
	last := make(map[entity.MealSlot]int, len(entity.MealSlots))
	for i, m := range rec.Meals {
		last[m.Type] = i
	}
	if len(last) != len(rec.Meals) {
		kept := make([]entity.MealEntry, 0, len(last))
		for i, m := range rec.Meals {
			if last[m.Type] == i {
				kept = append(kept, m)
			}
		}
		rec.Meals = kept
	}
	RecomputeTotals(rec)
}

// RecomputeTotals resets the totals to the sum over the meals. Totals are
// never patched incrementally.
func RecomputeTotals(rec *entity.DailyRecord) {
	var protein, fiber float64
	for _, m := range rec.Meals {
		protein += m.Protein
		fiber += m.Fiber
	}
	rec.TotalProtein = protein
	rec.TotalFiber = fiber
}

// SlotIntakes rebuilds the per-slot view, last write winning.
func SlotIntakes(rec entity.DailyRecord) map[entity.MealSlot]entity.MealIntake {
	out := make(map[entity.MealSlot]entity.MealIntake, len(entity.MealSlots))
	for _, slot := range entity.MealSlots {
		out[slot] = entity.MealIntake{}
	}
	for _, m := range rec.Meals {
		if !ValidSlot(m.Type) {
			continue
		}
		out[m.Type] = entity.MealIntake{Protein: m.Protein, Fiber: m.Fiber}
	}
	return out
}
