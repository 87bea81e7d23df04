package production

import (
	"errors"
	"math"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/goods"
)

var ErrMissingRecipeVariant = errors.New("missing recipe variant")

// Score is how many full batches of v the available stock supports.
// Ingredients with amount 0 never limit the score.
func Score(v catalogs.RecipeVariant, stock *pool.Stockpile) uint32 {
	score := uint32(math.MaxUint32)
	for _, in := range v.Inputs {
		if in.Amount == 0 {
			continue
		}
		n := stock.Available(in.Good) / in.Amount
		if n < score {
			score = n
		}
	}
	return score
}

// SelectVariant picks the variant with the highest score. Ties go to the
// first declared variant. ok is false when variants is empty.
func SelectVariant(variants []catalogs.RecipeVariant, stock *pool.Stockpile) (catalogs.RecipeVariant, bool) {
	if len(variants) == 0 {
		return catalogs.RecipeVariant{}, false
	}
	best := 0
	bestScore := Score(variants[0], stock)
	for i := 1; i < len(variants); i++ {
		if s := Score(variants[i], stock); s > bestScore {
			best, bestScore = i, s
		}
	}
	return variants[best], true
}

// ResolveVariant finds the variant of def producing output for the
// recorded choice, falling back to the sole untagged variant.
func ResolveVariant(def catalogs.BuildingDef, output goods.Good, choice string) (catalogs.RecipeVariant, error) {
	variants := def.VariantsFor(output)
	if choice != "" {
		for _, v := range variants {
			if v.Tag == choice {
				return v, nil
			}
		}
	}
	var untagged []catalogs.RecipeVariant
	for _, v := range variants {
		if v.Tag == "" {
			untagged = append(untagged, v)
		}
	}
	if len(untagged) == 1 {
		return untagged[0], nil
	}
	return catalogs.RecipeVariant{}, ErrMissingRecipeVariant
}
