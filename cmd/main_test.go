package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/gxa/internal/adapters/blob"
	"github.com/okian/gxa/internal/config"
	"github.com/okian/gxa/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

const catalogDoc = `{
  "accession": "E-MTAB-513",
  "type": "RNASEQ_MRNA_BASELINE",
  "species": {"name": "Homo sapiens"},
  "display": {"default_query_factor_type": "ORGANISM_PART", "factor_types": ["organism part"]},
  "assay_groups": [{"id": "g1", "assays": ["a1"]}, {"id": "g2", "assays": ["a2"]}],
  "assays": [
    {"id": "a1", "factors": [{"header": "organism part", "value": "liver"}]},
    {"id": "a2", "factors": [{"header": "organism part", "value": "heart"}]}
  ]
}`

func newTestApplication(t *testing.T, solrURL string) *application {
	t.Helper()
	ctx := context.Background()
	cfg := config.New(ctx)
	cfg.BlobDriver = "memory"
	cfg.IndexURL = solrURL
	cfg.ExportWorkerCount = 1

	a, err := newApplication(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("wire application: %v", err)
	}
	if _, err := a.blobs.Put(ctx, "catalog/E-MTAB-513.json", strings.NewReader(catalogDoc), blob.PutOptions{}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return a
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return w
}

func TestApplicationWiring(t *testing.T) {
	convey.Convey("Given the wired application on an in-memory store", t, func() {
		solr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"responseHeader":{"status":0},"response":{"numFound":0,"docs":[]},` +
				`"stats":{"stats_fields":{"bioentity_identifier":{"countDistinct":42}}}}`))
		}))
		defer solr.Close()
		a := newTestApplication(t, solr.URL)

		convey.Convey("When heatmap groups are requested", func() {
			w := get(a.handler, "/json/experiments/E-MTAB-513/heatmap-groups")

			convey.Convey("Then they are built from the catalog document", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(gjson.Get(w.Body.String(), "0.name").String(), convey.ShouldEqual, "ORGANISM_PART")
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When genes are counted", func() {
			w := get(a.handler, "/json/experiments/E-MTAB-513/genes?unit=TPM&cutoff=0.5")

			convey.Convey("Then the search index answers", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(gjson.Get(w.Body.String(), "genes").Int(), convey.ShouldEqual, 42)
			})
		})

		convey.Convey("When stats are requested", func() {
			w := get(a.handler, "/stats")

			convey.Convey("Then the catalog is counted", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(gjson.Get(w.Body.String(), "experiments").Int(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the docs are requested", func() {
			convey.So(get(a.handler, "/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get(a.handler, "/api-docs").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When exports are submitted before start", func() {
			w := httptest.NewRecorder()
			a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/json/experiments/E-MTAB-513/evidence/exports", http.NoBody))

			convey.Convey("Then the service is unavailable", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		convey.Convey("When the service runs", func() {
			ctx := context.Background()
			convey.So(a.svc.Start(ctx), convey.ShouldBeNil)

			convey.Convey("Then the metric updaters run and stop with their context", func() {
				convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(ctx, a.svc) }, convey.ShouldNotPanic)

				tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
				defer cancel()
				startSystemMetricsUpdater(tctx)
				startServiceMetricsUpdater(tctx, a.svc)
				convey.So(tctx.Err(), convey.ShouldNotBeNil)
			})

			convey.So(a.svc.Stop(ctx), convey.ShouldBeNil)
		})
	})
}

func TestApplicationErrors(t *testing.T) {
	convey.Convey("Given a config with an unknown blob driver", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.BlobDriver = "tape"

		convey.Convey("Then wiring fails", func() {
			_, err := newApplication(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a config without an index url", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.BlobDriver = "memory"
		cfg.IndexURL = ""

		convey.Convey("Then wiring fails", func() {
			_, err := newApplication(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
