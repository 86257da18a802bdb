package searchindex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/okian/gxa/internal/domain/profiles"
	"github.com/okian/gxa/pkg/metrics"
	"github.com/tidwall/gjson"
)

var _ profiles.SearchIndex = (*Client)(nil)

// BaselineExpressions returns the (gene, assay group) documents of q.
func (c *Client) BaselineExpressions(ctx context.Context, q profiles.BaselineQuery) ([]profiles.Row, error) {
	params := url.Values{}
	params.Set("q", anyOf(fieldGeneIDSearch, q.GeneIDs))
	params.Add("fq", termFilter(fieldAccession, q.Accession))
	params.Add("fq", atLeast(q.SingleField, q.Cutoff))
	if len(q.AssayGroupIDs) > 0 {
		params.Add("fq", anyOf(fieldAssayGroupID, q.AssayGroupIDs))
	}
	params.Set("fl", strings.Join([]string{fieldGeneID, q.SingleField, q.MultiField, fieldAssayGroupID, fieldSymbol}, ","))
	params.Set("rows", rowsOrDefault(q.Rows))

	res, err := c.selectDocs(ctx, c.bulk, params)
	if err != nil {
		return nil, err
	}
	docs := res.Get("response.docs").Array()
	rows := make([]profiles.Row, 0, len(docs))
	for i, doc := range docs {
		r, err := baselineRow(doc, q.SingleField, q.MultiField)
		if err != nil {
			return nil, fmt.Errorf("doc %d of %s: %w", i, q.Accession, err)
		}
		rows = append(rows, r)
	}
	metrics.RecordIndexRows(c.bulk, len(rows))
	return rows, nil
}

func baselineRow(doc gjson.Result, single, multi string) (profiles.Row, error) {
	r := profiles.Row{
		GeneID:       doc.Get(fieldGeneID).String(),
		AssayGroupID: doc.Get(fieldAssayGroupID).String(),
		Symbol:       first(doc.Get(fieldSymbol)),
	}
	if r.GeneID == "" || r.AssayGroupID == "" {
		return profiles.Row{}, fmt.Errorf("%w: missing %s or %s", ErrMalformedDoc, fieldGeneID, fieldAssayGroupID)
	}
	if m := doc.Get(multi); m.Exists() && m.IsArray() {
		r.Multi = true
		for _, v := range m.Array() {
			r.Values = append(r.Values, v.Float())
		}
		return r, nil
	}
	s := doc.Get(single)
	if !s.Exists() || s.Type != gjson.Number {
		return profiles.Row{}, fmt.Errorf("%w: %s is not a number", ErrMalformedDoc, single)
	}
	r.Values = []float64{s.Float()}
	return r, nil
}

// first returns the first value of a possibly multi-valued string field.
func first(v gjson.Result) string {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return ""
		}
		return arr[0].String()
	}
	return v.String()
}

// CountGenes returns the number of distinct genes of accession whose field is
// at least cutoff.
func (c *Client) CountGenes(ctx context.Context, accession, field string, cutoff float64) (int, error) {
	params := url.Values{}
	params.Set("q", "*:*")
	params.Add("fq", termFilter(fieldAccession, accession))
	params.Add("fq", atLeast(field, cutoff))
	params.Set("rows", "0")
	params.Set("stats", "true")
	params.Set("stats.field", "{!countDistinct=true}"+fieldGeneID)

	res, err := c.selectDocs(ctx, c.bulk, params)
	if err != nil {
		return 0, err
	}
	n := res.Get("stats.stats_fields." + fieldGeneID + ".countDistinct")
	if !n.Exists() {
		// no matching documents yields a null stats entry
		return 0, nil
	}
	return int(n.Int()), nil
}
