package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/coach/internal/app"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/internal/domain/planeditor"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDrafts(t *testing.T) {
	Convey("Given a roster, a library and an open draft", t, func() {
		ctx := context.Background()
		svc := startService(t, service.WithDraftCapacity(2))
		drafts := svc.Drafts()

		p1, err := svc.Players().Add(ctx, model.PlayerForm{FirstName: "P", LastName: "One", BirthYear: "2008"})
		So(err, ShouldBeNil)
		p2, err := svc.Players().Add(ctx, model.PlayerForm{FirstName: "P", LastName: "Two", BirthYear: "2009"})
		So(err, ShouldBeNil)
		squat, err := svc.Exercises().Add(ctx, "Squat")
		So(err, ShouldBeNil)

		d, err := drafts.Open(ctx, nil)
		So(err, ShouldBeNil)
		So(d.ID, ShouldNotBeEmpty)
		So(d.Loading, ShouldBeFalse)
		So(d.Plan.Date, ShouldEqual, testNow)

		Convey("When the Monday plan is built and saved", func() {
			_, err := drafts.Rename(d.ID, "Monday", nil)
			So(err, ShouldBeNil)
			_, err = drafts.AddExercise(d.ID, squat.ID)
			So(err, ShouldBeNil)
			_, err = drafts.AddColumn(d.ID, []string{p1.ID})
			So(err, ShouldBeNil)
			_, err = drafts.UpdateCell(d.ID, 0, squat.ID, model.Cell{Sets: "3", Reps: "10", Weight: "60"})
			So(err, ShouldBeNil)

			saved, err := drafts.Save(ctx, d.ID)
			So(err, ShouldBeNil)

			Convey("Then exactly one plan and one entry exist", func() {
				So(saved.Finished, ShouldBeTrue)
				plans, _ := svc.Plans().List(ctx)
				So(len(plans), ShouldEqual, 1)
				So(plans[0].Name, ShouldEqual, "Monday")

				entries, _ := svc.Plans().Entries(ctx, saved.Plan.ID)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].PlayerID, ShouldEqual, p1.ID)
				So(entries[0].ExerciseID, ShouldEqual, squat.ID)
				So(model.CellOf(entries[0]), ShouldResemble, model.Cell{Sets: "3", Reps: "10", Weight: "60"})
			})

			Convey("Then a draft opened on the plan shows the same grid", func() {
				id := saved.Plan.ID
				again, err := drafts.Open(ctx, &id)
				So(err, ShouldBeNil)
				So(again.Plan.Name, ShouldEqual, "Monday")
				So(again.Exercises, ShouldResemble, []model.Exercise{squat})
				So(len(again.Columns), ShouldEqual, 1)
				So(again.Columns[0].Players[0].ID, ShouldEqual, p1.ID)
				So(again.Columns[0].Cells[squat.ID], ShouldResemble, model.Cell{Sets: "3", Reps: "10", Weight: "60"})
			})

			Convey("Then deleting the player empties the plan", func() {
				So(svc.Players().Delete(ctx, p1.ID), ShouldBeNil)
				entries, _ := svc.Plans().Entries(ctx, saved.Plan.ID)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When a column's player is deleted before the draft is saved", func() {
			_, _ = drafts.Rename(d.ID, "Late change", nil)
			_, _ = drafts.AddExercise(d.ID, squat.ID)
			_, err := drafts.AddColumn(d.ID, []string{p1.ID, p2.ID})
			So(err, ShouldBeNil)
			So(svc.Players().Delete(ctx, p2.ID), ShouldBeNil)

			saved, err := drafts.Save(ctx, d.ID)

			Convey("Then the save succeeds without the deleted player", func() {
				So(err, ShouldBeNil)
				entries, _ := svc.Plans().Entries(ctx, saved.Plan.ID)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].PlayerID, ShouldEqual, p1.ID)
				So(len(saved.Columns[0].Players), ShouldEqual, 1)
			})
		})

		Convey("When a multi-player column is saved and reopened", func() {
			_, _ = drafts.Rename(d.ID, "Group", nil)
			_, _ = drafts.AddExercise(d.ID, squat.ID)
			_, err := drafts.AddColumn(d.ID, []string{p1.ID, p2.ID})
			So(err, ShouldBeNil)
			saved, err := drafts.Save(ctx, d.ID)
			So(err, ShouldBeNil)

			id := saved.Plan.ID
			again, err := drafts.Open(ctx, &id)
			So(err, ShouldBeNil)

			Convey("Then both players share one column", func() {
				So(len(again.Columns), ShouldEqual, 1)
				So(len(again.Columns[0].Players), ShouldEqual, 2)
			})
		})

		Convey("When a new exercise is created from the draft", func() {
			v, err := drafts.AddNewExercise(ctx, d.ID, "Lunge")
			So(err, ShouldBeNil)

			Convey("Then it is in the plan and the library", func() {
				So(len(v.Exercises), ShouldEqual, 1)
				So(v.Exercises[0].Name, ShouldEqual, "Lunge")
				lib, _ := svc.Exercises().List(ctx)
				So(len(lib), ShouldEqual, 2)
			})
		})

		Convey("When intents reference unknown rows", func() {
			_, err1 := drafts.AddExercise(d.ID, 999)
			_, err2 := drafts.AddColumn(d.ID, []string{"ghost"})
			_, err3 := drafts.RemoveColumn(d.ID, 0)
			_, err4 := drafts.Save(ctx, d.ID)

			Convey("Then each is refused with its own error", func() {
				So(errors.Is(err1, service.ErrUnknownExercise), ShouldBeTrue)
				So(errors.Is(err2, service.ErrUnknownPlayer), ShouldBeTrue)
				So(errors.Is(err3, planeditor.ErrColumnOutOfRange), ShouldBeTrue)
				So(errors.Is(err4, planeditor.ErrInvalidName), ShouldBeTrue)
			})
		})

		Convey("When the draft is discarded", func() {
			So(drafts.Discard(d.ID), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := drafts.Get(d.ID)
				So(errors.Is(err, service.ErrDraftNotFound), ShouldBeTrue)
				So(errors.Is(drafts.Discard(d.ID), service.ErrDraftNotFound), ShouldBeTrue)
			})
		})

		Convey("When more drafts are opened than fit", func() {
			_, _ = drafts.Open(ctx, nil)
			_, _ = drafts.Open(ctx, nil)

			Convey("Then the least recently used is dropped", func() {
				So(drafts.Len(), ShouldEqual, 2)
				_, err := drafts.Get(d.ID)
				So(errors.Is(err, service.ErrDraftNotFound), ShouldBeTrue)
			})
		})

		Convey("When opening a draft for a missing plan", func() {
			missing := int64(404)
			v, err := drafts.Open(ctx, &missing)

			Convey("Then an empty new plan is returned", func() {
				So(err, ShouldBeNil)
				So(v.Plan.ID, ShouldEqual, 0)
				So(v.Loading, ShouldBeFalse)
			})
		})
	})
}
