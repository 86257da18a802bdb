package types_test

import (
	"encoding/json"
	"testing"
	"time"

	types "github.com/okian/gxa/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func TestExportStatus(t *testing.T) {
	Convey("Given the export states", t, func() {
		Convey("Then only done and failed are terminal", func() {
			So(types.ExportQueued.Terminal(), ShouldBeFalse)
			So(types.ExportRunning.Terminal(), ShouldBeFalse)
			So(types.ExportDone.Terminal(), ShouldBeTrue)
			So(types.ExportFailed.Terminal(), ShouldBeTrue)
		})
	})
}

func TestExportJobJSON(t *testing.T) {
	Convey("Given a queued job", t, func() {
		job := types.ExportJob{
			ID:          "0b6c",
			Request:     types.ExportRequest{Accession: "E-GEOD-1", PValueCutoff: 0.05, MaxGenesPerContrast: -1},
			Status:      types.ExportQueued,
			SubmittedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		Convey("When it is encoded", func() {
			b, err := json.Marshal(job)
			So(err, ShouldBeNil)

			Convey("Then unset timestamps and results are omitted", func() {
				So(gjson.GetBytes(b, "status").String(), ShouldEqual, "queued")
				So(gjson.GetBytes(b, "request.accession").String(), ShouldEqual, "E-GEOD-1")
				So(gjson.GetBytes(b, "request.max_genes_per_contrast").Int(), ShouldEqual, -1)
				So(gjson.GetBytes(b, "started_at").Exists(), ShouldBeFalse)
				So(gjson.GetBytes(b, "object_key").Exists(), ShouldBeFalse)
				So(gjson.GetBytes(b, "submitted_at").String(), ShouldEqual, "2024-01-02T03:04:05Z")
			})
		})
	})
}
