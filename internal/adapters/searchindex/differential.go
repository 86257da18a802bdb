package searchindex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/pkg/metrics"
)

var _ evidence.ExpressionSource = (*Client)(nil)

// DifferentialExpressions returns the genes of one contrast passing both
// cut-offs, largest absolute fold change first.
func (c *Client) DifferentialExpressions(ctx context.Context, q evidence.DifferentialQuery) ([]evidence.Expression, error) {
	params := url.Values{}
	params.Set("q", "*:*")
	params.Add("fq", termFilter(fieldAccession, q.Accession))
	params.Add("fq", termFilter(fieldContrastID, q.ContrastID))
	params.Add("fq", absAtLeast(fieldFoldChange, q.FoldChangeCutoff))
	params.Add("fq", atMost(fieldPValue, q.PValueCutoff))
	params.Set("fl", strings.Join([]string{fieldGeneID, fieldDesignElement, fieldFoldChange, fieldPValue, fieldTStatistic}, ","))
	params.Set("sort", "abs("+fieldFoldChange+") desc")
	params.Set("rows", rowsOrDefault(q.Limit))

	res, err := c.selectDocs(ctx, c.differential, params)
	if err != nil {
		return nil, err
	}
	docs := res.Get("response.docs").Array()
	out := make([]evidence.Expression, 0, len(docs))
	for i, doc := range docs {
		e := evidence.Expression{
			GeneID:        doc.Get(fieldGeneID).String(),
			DesignElement: first(doc.Get(fieldDesignElement)),
			FoldChange:    doc.Get(fieldFoldChange).Float(),
			PValue:        doc.Get(fieldPValue).Float(),
			TStatistic:    doc.Get(fieldTStatistic).Float(),
		}
		if e.GeneID == "" || !doc.Get(fieldFoldChange).Exists() {
			return nil, fmt.Errorf("doc %d of %s/%s: %w", i, q.Accession, q.ContrastID, ErrMalformedDoc)
		}
		out = append(out, e)
	}
	metrics.RecordIndexRows(c.differential, len(out))
	return out, nil
}
