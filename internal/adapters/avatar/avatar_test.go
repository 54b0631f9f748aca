package avatar_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/okian/coach/internal/adapters/avatar"
	. "github.com/smartystreets/goconvey/convey"
)

// exerciseStore runs the behaviour every driver must share.
func exerciseStore(ctx context.Context, s avatar.Store) {
	Convey("When a payload is stored", func() {
		info, err := s.Put(ctx, "p1", bytes.NewReader([]byte("png-bytes")), "image/png")

		Convey("Then it can be read back", func() {
			So(err, ShouldBeNil)
			So(info.Size, ShouldEqual, 9)

			got, rc, err := s.Get(ctx, "p1")
			So(err, ShouldBeNil)
			defer func() { _ = rc.Close() }()
			body, _ := io.ReadAll(rc)
			So(string(body), ShouldEqual, "png-bytes")
			So(got.ContentType, ShouldEqual, "image/png")
		})

		Convey("Then storing again overwrites it", func() {
			_, err := s.Put(ctx, "p1", bytes.NewReader([]byte("jpg")), "image/jpeg")
			So(err, ShouldBeNil)

			got, rc, err := s.Get(ctx, "p1")
			So(err, ShouldBeNil)
			defer func() { _ = rc.Close() }()
			body, _ := io.ReadAll(rc)
			So(string(body), ShouldEqual, "jpg")
			So(got.ContentType, ShouldEqual, "image/jpeg")
		})

		Convey("Then deleting removes it", func() {
			So(s.Delete(ctx, "p1"), ShouldBeNil)
			_, _, err := s.Get(ctx, "p1")
			So(errors.Is(err, avatar.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When reading a missing key", func() {
		_, _, err := s.Get(ctx, "nobody")

		Convey("Then ErrNotFound is returned", func() {
			So(errors.Is(err, avatar.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When deleting a missing key", func() {
		Convey("Then it is not an error", func() {
			So(s.Delete(ctx, "nobody"), ShouldBeNil)
		})
	})

	Convey("When the key tries to leave the store", func() {
		_, err := s.Put(ctx, "../escape", strings.NewReader("x"), "")

		Convey("Then it is refused", func() {
			So(errors.Is(err, avatar.ErrInvalidKey), ShouldBeTrue)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory avatar store", t, func() {
		s := avatar.NewMemory()
		So(s.Driver(), ShouldEqual, avatar.DriverMemory)
		exerciseStore(context.Background(), s)
	})
}

func TestFSStore(t *testing.T) {
	Convey("Given a filesystem avatar store", t, func() {
		s, err := avatar.NewFS(t.TempDir())
		So(err, ShouldBeNil)
		So(s.Driver(), ShouldEqual, avatar.DriverFS)
		exerciseStore(context.Background(), s)
	})
}

// fakeS3 answers the handful of path-style object calls the driver makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// path is /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if len(parts) != 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	key := parts[1]

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestS3Store(t *testing.T) {
	Convey("Given an S3 avatar store against a fake endpoint", t, func() {
		srv := httptest.NewServer(&fakeS3{objects: map[string][]byte{}, types: map[string]string{}})
		defer srv.Close()

		ctx := context.Background()
		s, err := avatar.NewS3(ctx, avatar.S3Config{
			Bucket:          "avatars",
			Endpoint:        srv.URL,
			PathStyle:       true,
			AccessKeyID:     "AKIA",
			SecretAccessKey: "SECRET",
			HTTPClient:      srv.Client(),
		})
		So(err, ShouldBeNil)
		So(s.Driver(), ShouldEqual, avatar.DriverS3)
		exerciseStore(ctx, s)
	})

	Convey("Given no bucket", t, func() {
		_, err := avatar.NewS3(context.Background(), avatar.S3Config{})

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReadLimited(t *testing.T) {
	Convey("Given a size limit", t, func() {
		Convey("When the payload fits", func() {
			data, err := avatar.ReadLimited(strings.NewReader("12345"), 5)

			Convey("Then it is returned whole", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "12345")
			})
		})

		Convey("When the payload is larger", func() {
			_, err := avatar.ReadLimited(strings.NewReader("123456"), 5)

			Convey("Then ErrTooLarge is returned", func() {
				So(errors.Is(err, avatar.ErrTooLarge), ShouldBeTrue)
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given driver configs", t, func() {
		ctx := context.Background()

		s, err := avatar.Open(ctx, avatar.Config{Driver: avatar.DriverMemory})
		So(err, ShouldBeNil)
		So(s.Driver(), ShouldEqual, avatar.DriverMemory)

		s, err = avatar.Open(ctx, avatar.Config{Driver: avatar.DriverFS, Dir: t.TempDir()})
		So(err, ShouldBeNil)
		So(s.Driver(), ShouldEqual, avatar.DriverFS)

		_, err = avatar.Open(ctx, avatar.Config{Driver: "ftp"})
		So(errors.Is(err, avatar.ErrUnknownDriver), ShouldBeTrue)
	})
}
