package model

// Category is one of the six fixed analysis dimensions.
type Category string

const (
	CategoryTechnical     Category = "technical"
	CategoryContent       Category = "content"
	CategoryPerformance   Category = "performance"
	CategoryMobile        Category = "mobile"
	CategorySecurity      Category = "security"
	CategoryAccessibility Category = "accessibility"
)

// Categories returns the six categories in their canonical order. The index of
// a category in this slice is also the index of its bot.
func Categories() []Category {
	return []Category{
		CategoryTechnical,
		CategoryContent,
		CategoryPerformance,
		CategoryMobile,
		CategorySecurity,
		CategoryAccessibility,
	}
}

// Penalty is the score deducted per issue found in the category.
func (c Category) Penalty() int {
	switch c {
	case CategoryContent:
		return 12
	case CategoryMobile:
		return 20
	case CategorySecurity:
		return 25
	default:
		return 15
	}
}

// IssuePrefix is the token that issue ids of this category start with.
func (c Category) IssuePrefix() string {
	switch c {
	case CategoryTechnical:
		return "tech"
	case CategoryPerformance:
		return "perf"
	case CategoryAccessibility:
		return "a11y"
	default:
		return string(c)
	}
}

// Index returns the position of c in Categories, or -1.
func (c Category) Index() int {
	for i, cat := range Categories() {
		if cat == c {
			return i
		}
	}
	return -1
}

// Title returns the category name with its first letter upper-cased.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return string(s[0]-'a'+'A') + s[1:]
}
