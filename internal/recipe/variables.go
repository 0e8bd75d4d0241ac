package recipe

import (
	"regexp"
	"strings"

	"go-recipe-pipeline/internal/model"
)

// SubstituteAnalysisVariables replaces every occurrence of a known analysis
// variable placeholder in the template. Both the bare form <<NAME>> and the
// annotated form <<NAME:type>> are replaced. Matching is case-sensitive;
// placeholders with no corresponding variable are left verbatim.
func SubstituteAnalysisVariables(template string, vars model.AnalysisVariables) string {
	result := template
	for name, value := range vars {
		result = strings.ReplaceAll(result, "<<"+name+">>", value)
		annotated := regexp.MustCompile(`<<` + regexp.QuoteMeta(name) + `:[^>]+>>`)
		result = annotated.ReplaceAllString(result, value)
	}
	return result
}
