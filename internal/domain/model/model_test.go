package model_test

import (
	"errors"
	"testing"

	"github.com/okian/coach/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayerForm(t *testing.T) {
	Convey("Given a player form", t, func() {
		form := model.PlayerForm{FirstName: "Ana", LastName: "Ruiz", BirthYear: " 2009 "}

		Convey("When every field is filled", func() {
			year, err := form.Validate()

			Convey("Then the birth year is parsed", func() {
				So(err, ShouldBeNil)
				So(year, ShouldEqual, 2009)
			})
		})

		Convey("When the birth year is not a number", func() {
			form.BirthYear = "abc"
			_, err := form.Validate()

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidPlayer), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "abc")
			})
		})

		Convey("When a name is blank", func() {
			form.LastName = "   "
			_, err := form.Validate()

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidPlayer), ShouldBeTrue)
			})
		})

		Convey("When applied onto an existing player", func() {
			p := model.Player{ID: "p1", FirstName: "Old", LastName: "Name", BirthYear: 2000, Avatar: "p1"}
			err := form.Apply(&p)

			Convey("Then identity and avatar are kept", func() {
				So(err, ShouldBeNil)
				So(p, ShouldResemble, model.Player{ID: "p1", FirstName: "Ana", LastName: "Ruiz", BirthYear: 2009, Avatar: "p1"})
			})
		})

		Convey("When an invalid form is applied", func() {
			form.BirthYear = ""
			p := model.Player{ID: "p1", FirstName: "Old", LastName: "Name", BirthYear: 2000}
			err := form.Apply(&p)

			Convey("Then the player is untouched", func() {
				So(err, ShouldNotBeNil)
				So(p.FirstName, ShouldEqual, "Old")
				So(p.BirthYear, ShouldEqual, 2000)
			})
		})
	})
}

func TestTrainingPlan(t *testing.T) {
	Convey("Given training plans", t, func() {
		So(model.TrainingPlan{}.IsNew(), ShouldBeTrue)
		So(model.TrainingPlan{ID: 3}.IsNew(), ShouldBeFalse)

		e := model.PlanEntry{Sets: "3", Reps: "10", Weight: "20kg"}
		So(model.CellOf(e), ShouldResemble, model.Cell{Sets: "3", Reps: "10", Weight: "20kg"})
	})
}
