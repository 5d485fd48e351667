package analyzer

import "github.com/raysh454/sitebots/internal/model"

// ruleSet accumulates the outcome of a category's rules in evaluation order.
type ruleSet struct {
	url       string
	issues    []model.Issue
	positives []string
}

func newRuleSet(url string) *ruleSet {
	return &ruleSet{url: url, issues: []model.Issue{}, positives: []string{}}
}

func (r *ruleSet) issue(id string, sev model.Severity, title, description, recommendation string) {
	r.issues = append(r.issues, model.Issue{
		ID:             id,
		Severity:       sev,
		Title:          title,
		Description:    description,
		Recommendation: recommendation,
		AffectedPages:  []string{r.url},
	})
}

func (r *ruleSet) positive(s string) {
	r.positives = append(r.positives, s)
}

func (r *ruleSet) report(c model.Category, metrics map[string]string) *model.CategoryReport {
	return model.NewCategoryReport(c.Penalty(), r.issues, r.positives, metrics)
}
