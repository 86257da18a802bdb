package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with the default format", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns it", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWithFormat("xml")

			Convey("Then an error is returned", func() {
				So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a json logger on a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatJSON), ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("profiles").Info(ctx, "aggregated", String("accession", "E-MTAB-513"), Int("genes", 2))

			Convey("Then the record carries the group, fields and source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "aggregated")
				group, ok := rec["profiles"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["accession"], ShouldEqual, "E-MTAB-513")
				So(strings.Contains(group["source"].(string), "logger_test.go"), ShouldBeTrue)
			})
		})

		Convey("When logging below the level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(ctx, "shown", Bool("ok", true))
			So(SetLevelString("info"), ShouldBeNil)

			Convey("Then debug records are written", func() {
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})
	})

	Convey("Given an unknown level", t, func() {
		err := SetLevelString("loud")

		Convey("Then it is rejected", func() {
			So(errors.Is(err, ErrUnknownLevel), ShouldBeTrue)
		})
	})

	Convey("Given a nop logger", t, func() {
		Convey("Then logging does not panic", func() {
			So(func() { Nop().Warn(context.Background(), "dropped", Error(errors.New("x"))) }, ShouldNotPanic)
		})
	})
}
