package evidencedump

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/gxa/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const recordA = `{"sourceID":"expression_atlas","type":"rna_expression",` +
	`"unique_association_fields":{"geneID":"http://identifiers.org/ensembl/ENSG1","study_id":"http://identifiers.org/gxa.expt/E-GEOD-1","comparison_name":"'a' vs 'b'","disease_id":"http://www.ebi.ac.uk/efo/EFO_1"},` +
	`"target":{"id":"http://identifiers.org/ensembl/ENSG1","activity":"http://identifiers.org/cttv.activity/increased_transcript_level"},` +
	`"disease":{"id":"http://www.ebi.ac.uk/efo/EFO_1"},` +
	`"evidence":{"log2_fold_change":{"value":2.5},"resource_score":{"value":0.001},"date_asserted":"2020-01-01T00:00:00Z"}}`

var recordB = strings.ReplaceAll(recordA, "ENSG1", "ENSG2")

type fakeService struct {
	streams map[string]string
	calls   int64
	query   atomic.Value
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.WriteHeader(http.StatusOK)
		return
	}
	atomic.AddInt64(&f.calls, 1)
	f.query.Store(r.URL.RawQuery)
	acc := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/json/experiments/"), "/evidence")
	body, ok := f.streams[acc]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"experiment not found","code":"not_found"}`))
		return
	}
	w.Header().Set("Content-Type", ndjsonContentType)
	_, _ = w.Write([]byte(body))
}

func TestRun(t *testing.T) {
	convey.Convey("Given a service streaming evidence", t, func() {
		ctx := context.Background()
		_ = logger.InitWithWriter(&strings.Builder{}, logger.FormatText)
		svc := &fakeService{streams: map[string]string{
			"E-GEOD-1": recordA + "\n" + recordB + "\n",
			"E-GEOD-2": "",
		}}
		srv := httptest.NewServer(svc)
		defer srv.Close()

		cfg := &Config{
			BaseURL: srv.URL,
			Workers: 2,
			Timeout: 5 * time.Second,
		}

		convey.Convey("When valid experiments are dumped to a directory", func() {
			cfg.Accessions = []string{"E-GEOD-1"}
			cfg.OutputDir = t.TempDir()
			cfg.PValueCutoff = "0.01"

			stats, err := Run(ctx, cfg)

			convey.Convey("Then every record is verified and written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Experiments, convey.ShouldEqual, 1)
				convey.So(stats.Records, convey.ShouldEqual, 2)
				convey.So(stats.RecordsInvalid, convey.ShouldEqual, 0)
				convey.So(svc.query.Load(), convey.ShouldEqual, "pValueCutoff=0.01")

				b, rerr := os.ReadFile(filepath.Join(cfg.OutputDir, "E-GEOD-1.jsonl"))
				convey.So(rerr, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual, recordA+"\n"+recordB+"\n")
			})
		})

		convey.Convey("When an experiment has no evidence", func() {
			cfg.Accessions = []string{"E-GEOD-2"}

			stats, err := Run(ctx, cfg)

			convey.Convey("Then the run still succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Records, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When one accession is unknown", func() {
			cfg.Accessions = []string{"E-GEOD-1", "E-NOPE", "E-GEOD-2"}

			stats, err := Run(ctx, cfg)

			convey.Convey("Then the others complete and the run fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(stats.Experiments, convey.ShouldEqual, 3)
				convey.So(stats.ExperimentsFailed, convey.ShouldEqual, 1)
				convey.So(stats.Records, convey.ShouldEqual, 2)
				convey.So(atomic.LoadInt64(&svc.calls), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a stream carries a broken record", func() {
			svc.streams["E-GEOD-3"] = strings.ReplaceAll(recordA, "E-GEOD-1", "E-GEOD-3") + "\n{\"sourceID\":\n"
			cfg.Accessions = []string{"E-GEOD-3"}

			stats, err := Run(ctx, cfg)

			convey.Convey("Then it is counted as invalid", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(stats.RecordsInvalid, convey.ShouldEqual, 1)
				convey.So(stats.Records, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When no accessions are given", func() {
			_, err := Run(ctx, cfg)

			convey.Convey("Then nothing is requested", func() {
				convey.So(errors.Is(err, ErrNoAccessions), convey.ShouldBeTrue)
				convey.So(atomic.LoadInt64(&svc.calls), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given an unreachable service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Accessions: []string{"E-GEOD-1"}, Timeout: time.Second})

		convey.Convey("Then the health check fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
		})
	})
}

func TestVerifier(t *testing.T) {
	convey.Convey("Given a verifier for E-GEOD-1", t, func() {
		v := newVerifier("E-GEOD-1")

		convey.Convey("When the same association is seen twice", func() {
			dup1, err1 := v.check([]byte(recordA))
			dup2, err2 := v.check([]byte(recordA))

			convey.Convey("Then the second is a repeat", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(dup1, convey.ShouldBeFalse)
				convey.So(dup2, convey.ShouldBeTrue)
				convey.So(len(v.genes), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a record belongs to another study", func() {
			_, err := v.check([]byte(strings.ReplaceAll(recordA, "gxa.expt/E-GEOD-1", "gxa.expt/E-MTAB-9")))

			convey.So(errors.Is(err, errInvalidRecord), convey.ShouldBeTrue)
		})

		convey.Convey("When a record lacks a target", func() {
			_, err := v.check([]byte(strings.Replace(recordA, `"id":"http://identifiers.org/ensembl/ENSG1",`, "", 1)))

			convey.So(errors.Is(err, errInvalidRecord), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "target.id")
		})

		convey.Convey("When the p-value is out of range", func() {
			_, err := v.check([]byte(strings.Replace(recordA, `"value":0.001`, `"value":3`, 1)))

			convey.So(errors.Is(err, errInvalidRecord), convey.ShouldBeTrue)
		})
	})
}

func TestParseAccessions(t *testing.T) {
	convey.Convey("Given a comma separated list with blanks and repeats", t, func() {
		got := ParseAccessions(" E-GEOD-1,,E-MTAB-2 , E-GEOD-1")

		convey.So(got, convey.ShouldResemble, []string{"E-GEOD-1", "E-MTAB-2"})
	})
}
