package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/okian/gxa/internal/adapters/blob"
	"github.com/okian/gxa/internal/adapters/repository"
	service "github.com/okian/gxa/internal/app"
	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/internal/domain/profiles"
	"github.com/okian/gxa/pkg/logger"
)

const baselineDoc = `{
  "accession": "E-MTAB-513",
  "type": "RNASEQ_MRNA_BASELINE",
  "species": {"name": "Homo sapiens"},
  "display": {"default_query_factor_type": "ORGANISM_PART", "factor_types": ["organism part"]},
  "assay_groups": [{"id": "g1", "assays": ["a1", "a2"]}, {"id": "g2", "assays": ["a3"]}],
  "assays": [
    {"id": "a1", "factors": [{"header": "organism part", "value": "liver"}],
     "characteristics": [{"header": "sex", "value": "female"}]},
    {"id": "a2", "factors": [{"header": "organism part", "value": "liver"}]},
    {"id": "a3", "factors": [{"header": "organism part", "value": "heart"}],
     "characteristics": [{"header": "sex", "value": "male"}]}
  ]
}`

const differentialDoc = `{
  "accession": "E-GEOD-1",
  "type": "MICROARRAY_1COLOUR_MRNA_DIFFERENTIAL",
  "species": {"name": "Homo sapiens"},
  "description": "Asthma study",
  "last_update": "2017-03-04T05:06:07Z",
  "pubmed_ids": ["123"],
  "assay_groups": [{"id": "g1", "assays": ["r1"]}, {"id": "g2", "assays": ["t1"]}],
  "contrasts": [{"id": "g1_g2", "name": "'asthma' vs 'normal'", "reference": "g1", "test": "g2", "primary": true}],
  "assays": [
    {"id": "t1",
     "characteristics": [
       {"header": "organism part", "value": "lung", "ontology_terms": [{"accession": "UBERON_0002048", "source": "http://purl.obolibrary.org/obo/"}]},
       {"header": "disease", "value": "asthma", "ontology_terms": [{"accession": "EFO_0000270", "source": "http://www.ebi.ac.uk/efo/"}]}
     ],
     "factors": [{"header": "disease", "value": "asthma"}]},
    {"id": "r1", "factors": [{"header": "disease", "value": "normal"}]}
  ]
}`

type fakeIndex struct {
	mu      sync.Mutex
	rows    []profiles.Row
	genes   int
	exprs   map[string][]evidence.Expression
	queries int
	err     error
}

func (f *fakeIndex) BaselineExpressions(context.Context, profiles.BaselineQuery) ([]profiles.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return f.rows, f.err
}

func (f *fakeIndex) CountGenes(context.Context, string, string, float64) (int, error) {
	return f.genes, f.err
}

func (f *fakeIndex) DifferentialExpressions(_ context.Context, q evidence.DifferentialQuery) ([]evidence.Expression, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return f.exprs[q.ContrastID], f.err
}

type fixture struct {
	svc   *service.Service
	blobs blob.Store
	index *fakeIndex
}

func newFixture(t *testing.T, opts ...service.Option) fixture {
	t.Helper()
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	put := func(key, body string) {
		if _, err := blobs.Put(ctx, key, strings.NewReader(body), blob.PutOptions{}); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	put("catalog/E-MTAB-513.json", baselineDoc)
	put("catalog/E-GEOD-1.json", differentialDoc)
	put(repository.PercentileRanksKey("E-GEOD-1"), "Gene\tg1_g2\nENSG2\t97\n")
	put(repository.AnalysisMethodsKey("E-GEOD-1"), "Differential expression\t<b>limma</b>\n")

	index := &fakeIndex{
		rows: []profiles.Row{
			{GeneID: "ENSG1", AssayGroupID: "g1", Symbol: "BRCA1", Values: []float64{2}},
			{GeneID: "ENSG1", AssayGroupID: "g2", Multi: true, Values: []float64{1, 2, 3, 4, 5}},
		},
		genes: 7,
		exprs: map[string][]evidence.Expression{
			"g1_g2": {
				{GeneID: "ENSG1", DesignElement: "P1", FoldChange: 1.5, PValue: 0.01},
				{GeneID: "ENSG2", DesignElement: "P2", FoldChange: -3, PValue: 0.001},
			},
		},
	}
	catalog := repository.NewBlobCatalog(blobs, repository.WithLogger(logger.Nop()))
	opts = append([]service.Option{service.WithLogger(logger.Nop())}, opts...)
	return fixture{svc: service.New(catalog, index, blobs, opts...), blobs: blobs, index: index}
}
