package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	repository "github.com/okian/coach/internal/adapters/repository"
	service "github.com/okian/coach/internal/app"
	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var testNow = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

// startService opens a fresh sqlite store and starts a service on it.
func startService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, filepath.Join(t.TempDir(), "coach.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	opts = append([]service.Option{
		service.WithStore(store),
		service.WithClock(func() time.Time { return testNow }),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then repositories are not built yet", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Players(), ShouldBeNil)
			So(svc.Drafts(), ShouldBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without a store", t, func() {
		svc := service.New()

		Convey("When starting it", func() {
			err := svc.Start(context.Background())

			Convey("Then it refuses", func() {
				So(errors.Is(err, service.ErrNoStore), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a service with a store", t, func() {
		svc := startService(t, service.WithDraftCapacity(4))

		Convey("Then it should be marked as started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["draftCapacity"], ShouldEqual, 4)
			So(stats["players"], ShouldEqual, 0)
			So(stats["draftsOpen"], ShouldEqual, 0)
			So(stats["avatarDriver"], ShouldEqual, "memory")
		})

		Convey("And starting twice is a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Players(), ShouldNotBeNil)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And stopping again is harmless", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_CloseWatches(t *testing.T) {
	Convey("Given a started service with an open watch", t, func() {
		svc := startService(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_, changes, err := svc.Players().Watch(ctx)
		So(err, ShouldBeNil)

		Convey("When watches are closed", func() {
			So(svc.CloseWatches(), ShouldBeNil)

			Convey("Then the watch channel closes without the caller cancelling", func() {
				select {
				case _, ok := <-changes:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("watch still open", ShouldBeEmpty)
				}
			})

			Convey("And writes still succeed while new watches fail", func() {
				_, err := svc.Players().Add(ctx, model.PlayerForm{FirstName: "Ana", LastName: "Ruiz", BirthYear: "2009"})
				So(err, ShouldBeNil)
				_, _, err = svc.Players().Watch(ctx)
				So(err, ShouldNotBeNil)
				So(svc.CloseWatches(), ShouldBeNil)
			})
		})
	})
}
