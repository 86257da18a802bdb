package evidence

import (
	"fmt"
	"strconv"

	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/model"
)

// MinPValue replaces zero p-values, which only come from upstream rounding.
const MinPValue = 1e-234

const (
	sourceID          = "expression_atlas"
	recordType        = "rna_expression"
	accessLevel       = "public"
	databaseID        = "Expression_Atlas"
	scoreTypePValue   = "pvalue"
	targetType        = "http://identifiers.org/cttv.target/transcript_evidence"
	activityURL       = "http://identifiers.org/cttv.activity/"
	geneURL           = "http://identifiers.org/ensembl/"
	studyURL          = "http://identifiers.org/gxa.expt/"
	arrayExpressURL   = "http://identifiers.org/arrayexpress/"
	atlasExperiment   = "http://www.ebi.ac.uk/gxa/experiments/%s?geneQuery=%s"
	atlasGene         = "http://www.ebi.ac.uk/gxa/genes/"
	europePMC         = "http://europepmc.org/abstract/MED/"
	ecoMicroarray     = "http://purl.obolibrary.org/obo/ECO_0000058"
	ecoRNASeq         = "http://purl.obolibrary.org/obo/ECO_0000295"
	dateAssertedFmt   = "2006-01-02T15:04:05Z"
	activityIncreased = "increased_transcript_level"
	activityDecreased = "decreased_transcript_level"
	activityUnknown   = "unknown"
)

// Record is one Open Targets rna_expression evidence string.
type Record struct {
	SourceID                string                  `json:"sourceID"`
	Type                    string                  `json:"type"`
	AccessLevel             string                  `json:"access_level"`
	UniqueAssociationFields UniqueAssociationFields `json:"unique_association_fields"`
	Target                  Target                  `json:"target"`
	Disease                 Disease                 `json:"disease"`
	Evidence                Evidence                `json:"evidence"`
	Literature              *Literature             `json:"literature,omitempty"`
}

type UniqueAssociationFields struct {
	GeneID         string `json:"geneID"`
	StudyID        string `json:"study_id"`
	ComparisonName string `json:"comparison_name"`
	ProbeID        string `json:"probe_id,omitempty"`
	DiseaseID      string `json:"disease_id"`
}

type Target struct {
	ID         string `json:"id"`
	TargetType string `json:"target_type"`
	Activity   string `json:"activity"`
}

type Disease struct {
	ID        string    `json:"id"`
	Biosample Biosample `json:"biosample"`
}

type Biosample struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type Evidence struct {
	IsAssociated              bool           `json:"is_associated"`
	UniqueExperimentReference string         `json:"unique_experiment_reference"`
	URLs                      []Link         `json:"urls"`
	EvidenceCodes             []string       `json:"evidence_codes"`
	Log2FoldChange            Log2FoldChange `json:"log2_fold_change"`
	TestSample                string         `json:"test_sample"`
	ReferenceSample           string         `json:"reference_sample"`
	DateAsserted              string         `json:"date_asserted"`
	ExperimentOverview        string         `json:"experiment_overview"`
	ComparisonName            string         `json:"comparison_name"`
	OrganismPart              string         `json:"organism_part"`
	TestReplicatesN           int            `json:"test_replicates_n"`
	ReferenceReplicatesN      int            `json:"reference_replicates_n"`
	ConfidenceLevel           Confidence     `json:"confidence_level"`
	ResourceScore             ResourceScore  `json:"resource_score"`
	ProvenanceType            ProvenanceType `json:"provenance_type"`
}

type Link struct {
	NiceName string `json:"nice_name"`
	URL      string `json:"url"`
}

type Log2FoldChange struct {
	Value          float64 `json:"value"`
	PercentileRank *int    `json:"percentile_rank,omitempty"`
}

type ResourceScore struct {
	Value  float64 `json:"value"`
	Method Method  `json:"method"`
	Type   string  `json:"type"`
}

type Method struct {
	Description string `json:"description"`
}

type ProvenanceType struct {
	Database Database `json:"database"`
}

type Database struct {
	Version string `json:"version"`
	ID      string `json:"id"`
}

type Literature struct {
	References []Reference `json:"references"`
}

type Reference struct {
	LitID string `json:"lit_id"`
}

// Expression is the differential result of one gene (or probe) in one contrast.
type Expression struct {
	GeneID        string
	DesignElement string
	FoldChange    float64
	PValue        float64
	TStatistic    float64
}

// recordInput bundles what a single record is built from.
type recordInput struct {
	exp     *model.Experiment
	assoc   DiseaseAssociation
	disease design.OntologyTerm
	expr    Expression
	rank    *int
	method  string
	version string
}

func buildRecord(in recordInput) Record {
	acc := in.exp.Accession
	c := in.assoc.Contrast
	gene := in.expr.GeneID

	uaf := UniqueAssociationFields{
		GeneID:         geneURL + gene,
		StudyID:        studyURL + acc,
		ComparisonName: c.DisplayName,
		DiseaseID:      in.disease.URI(),
	}
	if in.exp.Type.IsMicroarray() {
		uaf.ProbeID = in.expr.DesignElement
	}

	r := Record{
		SourceID:                sourceID,
		Type:                    recordType,
		AccessLevel:             accessLevel,
		UniqueAssociationFields: uaf,
		Target: Target{
			ID:         geneURL + gene,
			TargetType: targetType,
			Activity:   Activity(in.assoc.Primary, in.expr.FoldChange),
		},
		Disease: Disease{
			ID:        in.disease.URI(),
			Biosample: biosample(in.assoc.Biosample),
		},
		Evidence: Evidence{
			IsAssociated:              true,
			UniqueExperimentReference: "STUDYID_" + acc,
			URLs: []Link{
				{NiceName: "ArrayExpress Experiment overview", URL: arrayExpressURL + acc},
				{NiceName: "Gene expression in Expression Atlas", URL: fmt.Sprintf(atlasExperiment, acc, gene)},
				{NiceName: "Baseline gene expression in Expression Atlas", URL: atlasGene + gene},
			},
			EvidenceCodes:        EvidenceCodes(in.exp.Type),
			Log2FoldChange:       Log2FoldChange{Value: in.expr.FoldChange, PercentileRank: in.rank},
			TestSample:           in.assoc.TestLabel,
			ReferenceSample:      in.assoc.ReferenceLabel,
			DateAsserted:         in.exp.LastUpdate.UTC().Format(dateAssertedFmt),
			ExperimentOverview:   in.exp.Description,
			ComparisonName:       c.DisplayName,
			OrganismPart:         organismPart(in.assoc.OrganismPart),
			TestReplicatesN:      c.Test.Size(),
			ReferenceReplicatesN: c.Reference.Size(),
			ConfidenceLevel:      in.assoc.Confidence,
			ResourceScore: ResourceScore{
				Value:  PValue(in.expr.PValue),
				Method: Method{Description: in.method},
				Type:   scoreTypePValue,
			},
			ProvenanceType: ProvenanceType{Database: Database{Version: in.version, ID: databaseID}},
		},
	}
	if len(in.exp.PubMedIDs) > 0 {
		refs := make([]Reference, len(in.exp.PubMedIDs))
		for i, id := range in.exp.PubMedIDs {
			refs[i] = Reference{LitID: europePMC + id}
		}
		r.Literature = &Literature{References: refs}
	}
	return r
}

// PValue clamps zero to MinPValue and rounds to three significant digits.
func PValue(p float64) float64 {
	if p == 0 {
		p = MinPValue
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(p, 'e', 2, 64), 64)
	if err != nil {
		return p
	}
	return v
}

// Activity is the transcript-level direction URL of a gene in a contrast.
// Only contrasts with the primary flag carry a direction.
func Activity(primary bool, foldChange float64) string {
	if primary {
		switch {
		case foldChange > 0:
			return activityURL + activityIncreased
		case foldChange < 0:
			return activityURL + activityDecreased
		}
	}
	return activityURL + activityUnknown
}

// EvidenceCodes returns the ECO terms for the experiment technology.
func EvidenceCodes(t model.ExperimentType) []string {
	switch {
	case t.IsMicroarray():
		return []string{ecoMicroarray}
	case t.IsRNASeqDifferential():
		return []string{ecoRNASeq}
	}
	return []string{}
}

func biosample(sc design.SampleCharacteristic) Biosample {
	b := Biosample{Name: sc.Value}
	if len(sc.OntologyTerms) > 0 {
		b.ID = sc.OntologyTerms[0].URI()
	}
	return b
}

func organismPart(sc design.SampleCharacteristic) string {
	if len(sc.OntologyTerms) > 0 {
		return sc.OntologyTerms[0].URI()
	}
	return sc.Value
}

// key identifies a record for de-duplication within one stream.
func (r Record) key() []string {
	u := r.UniqueAssociationFields
	return []string{u.GeneID, u.StudyID, u.ComparisonName, u.ProbeID, u.DiseaseID}
}
