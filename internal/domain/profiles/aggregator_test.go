package profiles_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/gxa/internal/domain/model"
	"github.com/okian/gxa/internal/domain/profiles"
	"github.com/okian/gxa/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeIndex struct {
	rows  []profiles.Row
	err   error
	count int
	last  profiles.BaselineQuery
	field string
}

func (f *fakeIndex) BaselineExpressions(_ context.Context, q profiles.BaselineQuery) ([]profiles.Row, error) {
	f.last = q
	return f.rows, f.err
}

func (f *fakeIndex) CountGenes(_ context.Context, _ string, field string, _ float64) (int, error) {
	f.field = field
	return f.count, f.err
}

var groups = []model.AssayGroup{
	model.NewAssayGroup("g1", "a1"),
	model.NewAssayGroup("g2", "a2"),
	model.NewAssayGroup("g3", "a3"),
}

func TestAggregatorFetch(t *testing.T) {
	ctx := context.Background()

	Convey("Given two genes over three assay groups with one pair missing", t, func() {
		idx := &fakeIndex{rows: []profiles.Row{
			{GeneID: "ENSG2", AssayGroupID: "g1", Values: []float64{4}},
			{GeneID: "ENSG1", AssayGroupID: "g1", Symbol: "TP53", Values: []float64{3, 1, 5, 2, 4}, Multi: true},
			{GeneID: "ENSG1", AssayGroupID: "g2", Symbol: "TP53", Values: []float64{7}},
			{GeneID: "ENSG1", AssayGroupID: "g3", Symbol: "TP53", Values: []float64{9}},
			{GeneID: "ENSG2", AssayGroupID: "g3", Values: []float64{1}},
		}}
		agg := profiles.NewAggregator(idx, profiles.WithLogger(logger.Nop()))

		list, err := agg.Fetch(ctx, []string{"ENSG1", "ENSG2"}, groups,
			profiles.Preferences{Unit: profiles.TPM, Cutoff: 0.5}, "E-MTAB-513")
		So(err, ShouldBeNil)

		Convey("Then the profiles follow the requested order", func() {
			So(list.GeneIDs(), ShouldResemble, []string{"ENSG1", "ENSG2"})
		})

		Convey("Then names fall back to the gene id without a symbol", func() {
			So(list[0].GeneName, ShouldEqual, "TP53")
			So(list[1].GeneName, ShouldEqual, "ENSG2")
		})

		Convey("Then quartile readings are sorted into the tuple", func() {
			e, ok := list[0].Expression("g1")
			So(ok, ShouldBeTrue)
			So(e, ShouldResemble, model.BaselineExpression{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5})
			So(list[0].MaxExpressionLevel(), ShouldEqual, 9)
		})

		Convey("Then the missing pair has no placeholder", func() {
			So(len(list[1].Entries), ShouldEqual, 2)
			_, ok := list[1].Expression("g2")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the query is sized and scoped for the request", func() {
			So(idx.last.Rows, ShouldEqual, 6)
			So(idx.last.Accession, ShouldEqual, "E-MTAB-513")
			So(idx.last.SingleField, ShouldEqual, "expression_level")
			So(idx.last.MultiField, ShouldEqual, "expression_levels")
			So(idx.last.Cutoff, ShouldEqual, 0.5)
		})
	})

	Convey("Given selected columns and the FPKM unit", t, func() {
		idx := &fakeIndex{rows: []profiles.Row{{GeneID: "ENSG1", AssayGroupID: "g2", Values: []float64{2}}}}
		agg := profiles.NewAggregator(idx, profiles.WithLogger(logger.Nop()), profiles.WithMaxRows(100))

		_, err := agg.Fetch(ctx, []string{"ENSG1"}, groups,
			profiles.Preferences{Unit: profiles.FPKM, SelectedColumnIDs: []string{"g2"}}, "E-MTAB-513")

		Convey("Then the query uses the FPKM fields and the selection", func() {
			So(err, ShouldBeNil)
			So(idx.last.Rows, ShouldEqual, 1)
			So(idx.last.AssayGroupIDs, ShouldResemble, []string{"g2"})
			So(idx.last.SingleField, ShouldEqual, "expression_level_fpkm")
		})
	})

	Convey("Given index rows that do not fit the experiment", t, func() {
		Convey("When a row names an unknown assay group", func() {
			idx := &fakeIndex{rows: []profiles.Row{{GeneID: "ENSG1", AssayGroupID: "g9", Values: []float64{1}}}}
			_, err := profiles.NewAggregator(idx, profiles.WithLogger(logger.Nop())).
				Fetch(ctx, []string{"ENSG1"}, groups, profiles.Preferences{}, "E-1")

			Convey("Then aggregation fails", func() {
				So(errors.Is(err, profiles.ErrUnknownAssayGroup), ShouldBeTrue)
			})
		})

		Convey("When a multi-valued row does not hold five readings", func() {
			idx := &fakeIndex{rows: []profiles.Row{{GeneID: "ENSG1", AssayGroupID: "g1", Values: []float64{1, 2}, Multi: true}}}
			_, err := profiles.NewAggregator(idx, profiles.WithLogger(logger.Nop())).
				Fetch(ctx, []string{"ENSG1"}, groups, profiles.Preferences{}, "E-1")

			Convey("Then the quartiles are rejected", func() {
				So(errors.Is(err, profiles.ErrMalformedQuartiles), ShouldBeTrue)
			})
		})

		Convey("When a requested gene has no rows", func() {
			idx := &fakeIndex{rows: []profiles.Row{{GeneID: "ENSG1", AssayGroupID: "g1", Values: []float64{1}}}}
			_, err := profiles.NewAggregator(idx, profiles.WithLogger(logger.Nop())).
				Fetch(ctx, []string{"ENSG1", "ENSG404"}, groups, profiles.Preferences{}, "E-1")

			Convey("Then aggregation fails fast", func() {
				So(errors.Is(err, profiles.ErrGeneNotIndexed), ShouldBeTrue)
			})
		})

		Convey("When the index fails", func() {
			boom := errors.New("unreachable")
			_, err := profiles.NewAggregator(&fakeIndex{err: boom}, profiles.WithLogger(logger.Nop())).
				Fetch(ctx, []string{"ENSG1"}, groups, profiles.Preferences{}, "E-1")

			Convey("Then the error propagates", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("When no genes are requested", func() {
			_, err := profiles.NewAggregator(&fakeIndex{}).Fetch(ctx, nil, groups, profiles.Preferences{}, "E-1")

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, profiles.ErrNoGenes), ShouldBeTrue)
			})
		})
	})
}

func TestAggregatorCount(t *testing.T) {
	Convey("Given an index with expressed genes", t, func() {
		idx := &fakeIndex{count: 42}
		n, err := profiles.NewAggregator(idx).Count(context.Background(), "E-1", profiles.Preferences{Unit: profiles.FPKM})

		Convey("Then the count comes from the unit's single field", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 42)
			So(idx.field, ShouldEqual, "expression_level_fpkm")
		})
	})

	Convey("Given unit names", t, func() {
		u, err := profiles.ParseUnit("fpkm")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, profiles.FPKM)
		u, err = profiles.ParseUnit("")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, profiles.TPM)
		_, err = profiles.ParseUnit("rpkm")
		So(errors.Is(err, profiles.ErrUnknownUnit), ShouldBeTrue)
	})
}
