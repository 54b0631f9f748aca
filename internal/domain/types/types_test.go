package types_test

import (
	"testing"

	types "github.com/okian/coach/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseTopic(t *testing.T) {
	Convey("Given topic names", t, func() {
		Convey("When parsing every known topic", func() {
			for _, topic := range types.Topics {
				got, ok := types.ParseTopic(string(topic))

				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, topic)
			}
		})

		Convey("When parsing an unknown name", func() {
			got, ok := types.ParseTopic("coaches")

			Convey("Then it is not recognized", func() {
				So(ok, ShouldBeFalse)
				So(got, ShouldEqual, types.Topic(""))
			})
		})

		Convey("When parsing with different case", func() {
			_, ok := types.ParseTopic("Players")

			Convey("Then matching is exact", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
