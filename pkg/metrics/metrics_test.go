package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegisterer(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "gxa")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.latencyBuckets[0], ShouldEqual, 1)
				So(manager.constLabels, ShouldBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithRegisterer(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
				So(manager.latencyBuckets, ShouldResemble, []float64{1, 10, 100})
			})

			Convey("Then metrics carry the custom names and labels", func() {
				manager.profilesAggregated.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_profiles_aggregated_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty option values are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithRegisterer(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "gxa")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording domain metrics", func() {
			before := testutil.ToFloat64(globalManager.evidenceRecords.WithLabelValues("high"))
			RecordEvidenceRecord("high")
			RecordEvidenceRecord("high")

			Convey("Then the labelled counter grows", func() {
				So(testutil.ToFloat64(globalManager.evidenceRecords.WithLabelValues("high")), ShouldEqual, before+2)
			})
		})

		Convey("When setting gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)

			Convey("Then the latest value wins", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When recording every other metric", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordFilterGroupsBuilt("baseline", 3)
					RecordProfilesAggregated(10)
					RecordContrastSkipped("no_disease")
					RecordExperimentSkipped("not_human")
					RecordIndexQuery("bulk-analytics", "ok", 12.5)
					RecordIndexRows("bulk-analytics", 40)
					RecordCacheHit("heatmap_groups")
					RecordCacheMiss("heatmap_groups")
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordExportJob("done")
					RecordWorkerProcessingLatency(3)
					RecordWorkerError()
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequestDuration("/healthz", "GET", "200", 1.5)
					RecordErrorByEndpoint("/json/exports", "GET", "not_found")
					RecordBlobOperation("memory", "put", "ok")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
