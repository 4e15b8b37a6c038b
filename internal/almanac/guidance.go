package almanac

import (
	"almanac-platform/internal/models"
)

// guidanceBranch is the farming/business advice for one half of the lunation
type guidanceBranch struct {
	farmingBest   []string
	farmingAvoid  []string
	businessBest  []string
	businessAvoid []string
}

// seasonGuidance is the Middle Tennessee advice table for one season.
// increasing applies to the new and waxing groups, decreasing to full and
// waning. Quarter and other phases only receive the crop list.
type seasonGuidance struct {
	crops      []string
	increasing guidanceBranch
	decreasing guidanceBranch
}

var guidanceTable = map[models.Season]seasonGuidance{
	models.SeasonSpring: {
		crops: []string{"corn", "soybeans", "pasture renovation"},
		increasing: guidanceBranch{
			farmingBest:   []string{"starting corn and soybean plantings", "seeding cool-season pasture"},
			farmingAvoid:  []string{"heavy harvest operations"},
			businessBest:  []string{"kicking off new projects", "planning marketing around planting season"},
			businessAvoid: []string{"overcommitting long-term before plans are clear"},
		},
		decreasing: guidanceBranch{
			farmingBest:  []string{"thinning seedlings", "weeding and strengthening stands"},
			businessBest: []string{"reviewing budgets", "adjusting early plans"},
		},
	},
	models.SeasonSummer: {
		crops: []string{"corn", "soybeans", "hay", "cattle forage"},
		increasing: guidanceBranch{
			farmingBest:  []string{"side-dressing corn and soybeans", "irrigation and pest scouting"},
			businessBest: []string{"mid-season promotions", "field days and farm visits"},
		},
		decreasing: guidanceBranch{
			farmingBest:  []string{"hay cutting and storage", "rotational grazing adjustments"},
			businessBest: []string{"checking margins on inputs", "cutting what is not paying off"},
		},
	},
	models.SeasonFall: {
		crops: []string{"pumpkins", "cover crops", "pasture management"},
		increasing: guidanceBranch{
			farmingBest:  []string{"field scouting for harvest timing", "pasture overseeding"},
			businessBest: []string{"planning fall markets", "lining up buyers and processors"},
		},
		decreasing: guidanceBranch{
			farmingBest:  []string{"harvesting corn and soybeans", "bringing in pumpkins and fall crops", "seeding winter cover crops"},
			businessBest: []string{"settling accounts", "closing out risky contracts", "year-end inventory"},
		},
	},
	models.SeasonWinter: {
		crops: []string{"equipment maintenance", "pasture planning"},
		increasing: guidanceBranch{
			farmingBest:  []string{"equipment maintenance", "seed ordering and pasture planning"},
			businessBest: []string{"strategic planning for next season", "budgeting and cash-flow mapping"},
		},
		decreasing: guidanceBranch{
			farmingBest:  []string{"barn and fence repairs"},
			businessBest: []string{"bookkeeping and tax prep", "closing old files"},
		},
	},
}

// GuidanceFor returns farming and business guidance plus the seasonal crop
// list. The returned slices are fresh copies and never nil.
func GuidanceFor(season models.Season, group models.PhaseGroup) (farming, business models.Guidance, crops []string) {
	farming = models.NewGuidance()
	business = models.NewGuidance()

	entry, ok := guidanceTable[season]
	if !ok {
		return farming, business, []string{}
	}
	crops = cloneStrings(entry.crops)

	var branch *guidanceBranch
	switch group {
	case models.GroupNew, models.GroupWaxing:
		branch = &entry.increasing
	case models.GroupWaning, models.GroupFull:
		branch = &entry.decreasing
	default:
		return farming, business, crops
	}

	farming.BestFor = append(farming.BestFor, branch.farmingBest...)
	farming.Avoid = append(farming.Avoid, branch.farmingAvoid...)
	business.BestFor = append(business.BestFor, branch.businessBest...)
	business.Avoid = append(business.Avoid, branch.businessAvoid...)
	return farming, business, crops
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
