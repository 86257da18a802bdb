package evidencedump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var errInvalidRecord = errors.New("invalid evidence record")

// requiredPaths must be present and non-empty in every record.
var requiredPaths = []string{
	"sourceID",
	"type",
	"target.id",
	"target.activity",
	"disease.id",
	"unique_association_fields.geneID",
	"unique_association_fields.study_id",
	"unique_association_fields.comparison_name",
	"evidence.log2_fold_change.value",
	"evidence.resource_score.value",
	"evidence.date_asserted",
}

// verifier checks the records of one accession.
type verifier struct {
	accession string
	seen      map[string]struct{}
	genes     map[string]struct{}
}

func newVerifier(accession string) *verifier {
	return &verifier{
		accession: accession,
		seen:      make(map[string]struct{}),
		genes:     make(map[string]struct{}),
	}
}

// check validates one record. duplicate reports a repeated association key,
// which is legal only for distinct probes.
func (v *verifier) check(line []byte) (duplicate bool, err error) {
	if !gjson.ValidBytes(line) {
		return false, fmt.Errorf("%w: not JSON", errInvalidRecord)
	}
	res := gjson.ParseBytes(line)
	for _, p := range requiredPaths {
		if s := res.Get(p).String(); strings.TrimSpace(s) == "" {
			return false, fmt.Errorf("%w: missing %s", errInvalidRecord, p)
		}
	}
	if study := res.Get("unique_association_fields.study_id").String(); !strings.HasSuffix(study, v.accession) {
		return false, fmt.Errorf("%w: study %s does not belong to %s", errInvalidRecord, study, v.accession)
	}
	if p := res.Get("evidence.resource_score.value").Float(); p <= 0 || p > 1 {
		return false, fmt.Errorf("%w: p-value %g out of range", errInvalidRecord, p)
	}
	switch a := res.Get("target.activity").String(); {
	case strings.HasSuffix(a, "increased_transcript_level"), strings.HasSuffix(a, "decreased_transcript_level"), strings.HasSuffix(a, "unknown"):
	default:
		return false, fmt.Errorf("%w: activity %s", errInvalidRecord, a)
	}

	u := res.Get("unique_association_fields")
	key := strings.Join([]string{
		u.Get("geneID").String(),
		u.Get("comparison_name").String(),
		u.Get("probe_id").String(),
		u.Get("disease_id").String(),
	}, "\x00")
	v.genes[u.Get("geneID").String()] = struct{}{}
	if _, ok := v.seen[key]; ok {
		return true, nil
	}
	v.seen[key] = struct{}{}
	return false, nil
}
