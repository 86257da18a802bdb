package searchindex

import (
	"strconv"
	"strings"
)

// Schema fields of the analytics collections.
const (
	fieldAccession     = "experiment_accession"
	fieldGeneID        = "bioentity_identifier"
	fieldGeneIDSearch  = "bioentity_identifier_search"
	fieldAssayGroupID  = "assay_group_id"
	fieldSymbol        = "keyword_symbol"
	fieldContrastID    = "contrast_id"
	fieldFoldChange    = "fold_change"
	fieldPValue        = "p_value"
	fieldTStatistic    = "t_statistic"
	fieldDesignElement = "design_element"
)

// quote makes s a single phrase term.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// termFilter matches field against one value.
func termFilter(field, value string) string {
	return field + ":" + quote(value)
}

// anyOf matches field against any of values.
func anyOf(field string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return field + ":(" + strings.Join(quoted, " OR ") + ")"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// atLeast matches field >= min.
func atLeast(field string, min float64) string {
	return field + ":[" + num(min) + " TO *]"
}

// atMost matches field <= max.
func atMost(field string, max float64) string {
	return field + ":[* TO " + num(max) + "]"
}

// absAtLeast matches |field| >= min.
func absAtLeast(field string, min float64) string {
	if min <= 0 {
		return field + ":[* TO *]"
	}
	return "(" + field + ":[* TO " + num(-min) + "] OR " + atLeast(field, min) + ")"
}
