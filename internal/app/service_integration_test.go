package service_test

import (
	"bufio"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/gxa/internal/adapters/blob"
	service "github.com/okian/gxa/internal/app"
	"github.com/okian/gxa/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func waitForJob(svc *service.Service, id string) types.ExportJob {
	deadline := time.Now().Add(3 * time.Second)
	for {
		j, err := svc.Export(context.Background(), id)
		if err == nil && j.Status.Terminal() || time.Now().After(deadline) {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExportPipeline(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		f := newFixture(t, service.WithWorkerCount(2), service.WithQueueSize(8))
		So(f.svc.Start(ctx), ShouldBeNil)
		So(f.svc.Start(ctx), ShouldBeNil)
		So(f.svc.Ready(), ShouldBeTrue)

		Reset(func() {
			_ = f.svc.Stop(ctx)
		})

		Convey("When an export is submitted", func() {
			req := types.ExportRequest{Accession: "E-GEOD-1", PValueCutoff: 1, MaxGenesPerContrast: -1}
			job, err := f.svc.SubmitExport(ctx, req)
			So(err, ShouldBeNil)
			So(job.ID, ShouldNotBeEmpty)
			So(job.Status, ShouldEqual, types.ExportQueued)

			Convey("Then the records land in the blob store as JSON lines", func() {
				done := waitForJob(f.svc, job.ID)
				So(done.Status, ShouldEqual, types.ExportDone)
				So(done.Records, ShouldEqual, 2)
				So(done.ObjectKey, ShouldEqual, service.ExportKey("E-GEOD-1", job.ID))
				So(done.FinishedAt, ShouldNotBeNil)

				info, rc, err := f.blobs.Get(ctx, done.ObjectKey)
				So(err, ShouldBeNil)
				defer rc.Close()
				So(info.ContentType, ShouldEqual, "application/x-ndjson")
				So(info.Metadata["job-id"], ShouldEqual, job.ID)

				var lines []string
				sc := bufio.NewScanner(rc)
				sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
				for sc.Scan() {
					lines = append(lines, sc.Text())
				}
				So(sc.Err(), ShouldBeNil)
				So(len(lines), ShouldEqual, 2)
				So(gjson.Valid(lines[0]), ShouldBeTrue)
				So(gjson.Get(lines[0], "target.id").String(), ShouldEqual, "http://identifiers.org/ensembl/ENSG2")
			})

			Convey("Then finished jobs no longer count as pending", func() {
				waitForJob(f.svc, job.ID)
				st := f.svc.GetStats(ctx)
				So(st.ExportsPending, ShouldEqual, 0)
				So(st.Workers, ShouldEqual, 2)
				So(st.QueueCapacity, ShouldEqual, 8)
				So(st.Experiments, ShouldEqual, 2)
			})
		})

		Convey("When an export of an unknown experiment is submitted", func() {
			_, err := f.svc.SubmitExport(ctx, types.ExportRequest{Accession: "E-NONE", PValueCutoff: 1})

			Convey("Then it is refused up front", func() {
				So(err, ShouldNotBeNil)
				So(f.svc.GetStats(ctx).ExportsPending, ShouldEqual, 0)
			})
		})

		Convey("When the cut-offs are out of range", func() {
			_, err := f.svc.SubmitExport(ctx, types.ExportRequest{Accession: "E-GEOD-1", PValueCutoff: 3})

			Convey("Then it is a bad request", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})
	})

	Convey("Given an index that fails", t, func() {
		f := newFixture(t, service.WithWorkerCount(1))
		f.index.err = errors.New("solr down")
		So(f.svc.Start(ctx), ShouldBeNil)
		Reset(func() {
			_ = f.svc.Stop(ctx)
		})

		job, err := f.svc.SubmitExport(ctx, types.ExportRequest{Accession: "E-GEOD-1", PValueCutoff: 1})
		So(err, ShouldBeNil)

		Convey("Then the job ends failed with the cause recorded", func() {
			done := waitForJob(f.svc, job.ID)
			So(done.Status, ShouldEqual, types.ExportFailed)
			So(done.Error, ShouldContainSubstring, "solr down")
			_, _, err := f.blobs.Get(ctx, service.ExportKey("E-GEOD-1", job.ID))
			So(errors.Is(err, blob.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestExportDeduplication(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service whose workers are busy", t, func() {
		f := newFixture(t, service.WithWorkerCount(1))
		// hold the only worker so submissions stay pending
		f.index.mu.Lock()
		So(f.svc.Start(ctx), ShouldBeNil)

		req := types.ExportRequest{Accession: "E-GEOD-1", PValueCutoff: 1}
		first, err := f.svc.SubmitExport(ctx, req)
		So(err, ShouldBeNil)
		second, err := f.svc.SubmitExport(ctx, req)
		So(err, ShouldBeNil)
		other, err := f.svc.SubmitExport(ctx, types.ExportRequest{Accession: "E-GEOD-1", PValueCutoff: 0.5})
		So(err, ShouldBeNil)
		f.index.mu.Unlock()

		Convey("Then the identical request returns the pending job", func() {
			So(second.ID, ShouldEqual, first.ID)
			So(other.ID, ShouldNotEqual, first.ID)
			So(waitForJob(f.svc, first.ID).Status, ShouldEqual, types.ExportDone)
			So(waitForJob(f.svc, other.ID).Status, ShouldEqual, types.ExportDone)
		})

		Convey("Then once finished the same request starts a new job", func() {
			waitForJob(f.svc, first.ID)
			again, err := f.svc.SubmitExport(ctx, req)
			So(err, ShouldBeNil)
			So(again.ID, ShouldNotEqual, first.ID)
		})

		So(f.svc.Stop(ctx), ShouldBeNil)
		So(f.svc.Ready(), ShouldBeFalse)
	})
}
