package domain

import "strings"

// Category is the closed set of pharma event categories. Every persisted
// event carries exactly one of these values.
type Category string

const (
	CategoryBrandPerception    Category = "BRAND_PERCEPTION"
	CategorySideEffects        Category = "SIDE_EFFECTS"
	CategoryCompetitorActivity Category = "COMPETITOR_ACTIVITY"
	CategoryRegulationPolicy   Category = "REGULATION_POLICY"
	CategoryClinicalTrials     Category = "CLINICAL_TRIALS"
	CategoryMarketingPromotion Category = "MARKETING_PROMOTION"
)

// Categories lists all valid categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryBrandPerception,
		CategorySideEffects,
		CategoryCompetitorActivity,
		CategoryRegulationPolicy,
		CategoryClinicalTrials,
		CategoryMarketingPromotion,
	}
}

// Valid reports whether c is one of the six known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBrandPerception, CategorySideEffects, CategoryCompetitorActivity,
		CategoryRegulationPolicy, CategoryClinicalTrials, CategoryMarketingPromotion:
		return true
	}
	return false
}

// MapLabelToCategory normalizes a free-form classifier label to a Category.
// The substring checks run in a fixed priority order; a label containing
// both "brand" and "trial" maps to CLINICAL_TRIALS because "trial" is
// checked first. Unknown or empty labels fall back to BRAND_PERCEPTION.
func MapLabelToCategory(label string) Category {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return CategoryBrandPerception
	}

	switch {
	case strings.Contains(normalized, "side"):
		return CategorySideEffects
	case strings.Contains(normalized, "trial"):
		return CategoryClinicalTrials
	case strings.Contains(normalized, "regulation"):
		return CategoryRegulationPolicy
	case strings.Contains(normalized, "competitor"):
		return CategoryCompetitorActivity
	case strings.Contains(normalized, "marketing"):
		return CategoryMarketingPromotion
	case strings.Contains(normalized, "brand"):
		return CategoryBrandPerception
	}

	return CategoryBrandPerception
}
