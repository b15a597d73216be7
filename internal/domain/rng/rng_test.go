package rng_test

import (
	"testing"

	"github.com/okian/matchsim/internal/domain/rng"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSourceDeterminism(t *testing.T) {
	Convey("Given two sources with the same seed", t, func() {
		a := rng.New(42)
		b := rng.New(42)

		Convey("Then every draw kind matches", func() {
			for i := 0; i < 1000; i++ {
				So(a.Float64(), ShouldEqual, b.Float64())
				So(a.IntN(17), ShouldEqual, b.IntN(17))
				So(a.Chance(0.3), ShouldEqual, b.Chance(0.3))
				So(a.WeightedIndex([]float64{1, 2, 3}), ShouldEqual, b.WeightedIndex([]float64{1, 2, 3}))
			}
		})
	})

	Convey("Given two sources with different seeds", t, func() {
		a := rng.New(1)
		b := rng.New(2)

		Convey("Then their streams diverge", func() {
			same := 0
			for i := 0; i < 100; i++ {
				if a.Float64() == b.Float64() {
					same++
				}
			}
			So(same, ShouldBeLessThan, 100)
		})
	})
}

func TestSourceRanges(t *testing.T) {
	Convey("Given a source", t, func() {
		src := rng.New(7)

		Convey("Then Float64 stays in [0,1)", func() {
			for i := 0; i < 10000; i++ {
				f := src.Float64()
				So(f >= 0 && f < 1, ShouldBeTrue)
			}
		})

		Convey("Then IntN stays in [0,n)", func() {
			for i := 0; i < 1000; i++ {
				n := src.IntN(5)
				So(n, ShouldBeBetweenOrEqual, 0, 4)
			}
		})

		Convey("Then IntN of a non-positive bound is zero", func() {
			So(src.IntN(0), ShouldEqual, 0)
			So(src.IntN(-3), ShouldEqual, 0)
		})

		Convey("Then certain and impossible chances are fixed", func() {
			So(src.Chance(0), ShouldBeFalse)
			So(src.Chance(-1), ShouldBeFalse)
			So(src.Chance(1), ShouldBeTrue)
			So(src.Chance(2), ShouldBeTrue)
		})
	})
}

func TestWeightedIndex(t *testing.T) {
	Convey("Given weights with zero and negative entries", t, func() {
		src := rng.New(99)
		weights := []float64{0, 3, -1, 1}

		Convey("Then only positive weights are chosen", func() {
			counts := make([]int, len(weights))
			for i := 0; i < 4000; i++ {
				counts[src.WeightedIndex(weights)]++
			}
			So(counts[0], ShouldEqual, 0)
			So(counts[2], ShouldEqual, 0)
			So(counts[1], ShouldBeGreaterThan, counts[3])
		})
	})

	Convey("Given no positive weight", t, func() {
		src := rng.New(3)

		Convey("Then the first index is returned", func() {
			So(src.WeightedIndex([]float64{0, 0, -2}), ShouldEqual, 0)
			So(src.WeightedIndex(nil), ShouldEqual, 0)
		})
	})
}

func TestDeriveSeed(t *testing.T) {
	Convey("Given match identifiers", t, func() {
		Convey("Then the same id always derives the same seed", func() {
			So(rng.DeriveSeed("r1-m3"), ShouldEqual, rng.DeriveSeed("r1-m3"))
		})

		Convey("Then different ids derive different seeds", func() {
			So(rng.DeriveSeed("r1-m3"), ShouldNotEqual, rng.DeriveSeed("r1-m4"))
		})
	})
}
