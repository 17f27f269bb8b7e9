package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/hls"
	"github.com/rpdl/rpdl/network"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

type recordingSink struct {
	mu       sync.Mutex
	started  []int64
	advances []int64
	messages []string
	finished int
}

func (r *recordingSink) Start(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, total)
}

func (r *recordingSink) Advance(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advances = append(r.advances, n)
}

func (r *recordingSink) SetMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingSink) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func (r *recordingSink) total() (sum int64) {
	for _, n := range r.advances {
		sum += n
	}
	return
}

func playlist(names ...string) string {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:2\n#EXT-X-MEDIA-SEQUENCE:0\n")
	for _, name := range names {
		sb.WriteString("#EXTINF:2.0,\n" + name + "\n")
	}
	sb.WriteString("#EXT-X-ENDLIST\n")
	return sb.String()
}

type segmentServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newSegmentServer() *segmentServer {
	s := &segmentServer{}

	bodies := map[string]string{"a.ts": "AAA", "b.ts": "BBB", "c.ts": "CC"}

	many := make([]string, 20)
	for i := range many {
		many[i] = fmt.Sprintf("%02d.ts", i)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/good/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist("a.ts", "b.ts", "c.ts")))
	})
	mux.HandleFunc("/broken/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist("a.ts", "fail.ts", "c.ts")))
	})
	mux.HandleFunc("/many/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist(many...)))
	})
	mux.HandleFunc("/late/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist("slow.ts", "fail.ts", "c.ts")))
	})
	mux.HandleFunc("/stall/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist("a.ts", "stall.ts")))
	})
	mux.HandleFunc("/garbage/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	})

	segment := func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[strings.LastIndexByte(r.URL.Path, '/')+1:]

		s.mu.Lock()
		s.requests = append(s.requests, name)
		s.mu.Unlock()

		current := s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		for {
			peak := s.peak.Load()
			if current <= peak || s.peak.CompareAndSwap(peak, current) {
				break
			}
		}

		switch name {
		case "fail.ts":
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		case "slow.ts":
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("AAA"))
			return
		case "stall.ts":
			_, _ = w.Write([]byte("ST"))
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}

		if body, ok := bodies[name]; ok {
			_, _ = w.Write([]byte(body))
			return
		}

		// earlier segments answer later so completion order differs from playlist order
		var index int
		_, _ = fmt.Sscanf(name, "%02d.ts", &index)
		time.Sleep(time.Duration(20-index) * time.Millisecond)
		_, _ = w.Write([]byte(fmt.Sprintf("[%02d]", index)))
	}
	mux.HandleFunc("/good/", segment)
	mux.HandleFunc("/broken/", segment)
	mux.HandleFunc("/many/", segment)
	mux.HandleFunc("/late/", segment)
	mux.HandleFunc("/stall/", segment)

	s.Server = httptest.NewServer(mux)
	return s
}

func (s *segmentServer) reset() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
	s.peak.Store(0)
}

func (s *segmentServer) segmentRequests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func TestAssemble(t *testing.T) {
	server := newSegmentServer()
	defer server.Close()

	client := network.Wrap(server.Client())
	ctx := context.Background()

	read := func(path string) string {
		data, err := afero.ReadFile(filesystem.API(), path)
		So(err, ShouldBeNil)
		return string(data)
	}

	Convey("Given a variant with three segments", t, func() {
		filesystem.SetMemMapFs()
		server.reset()

		variant := &hls.Variant{URI: server.URL + "/good/index.m3u8", Resolution: "1280x720"}
		sink := &recordingSink{}

		Convey("Sequential assembly concatenates the bodies in order", func() {
			err := Assemble(ctx, client, variant, "out.ts", sink, Options{Parallel: 1})
			So(err, ShouldBeNil)
			So(read("out.ts"), ShouldEqual, "AAABBBCC")

			So(server.segmentRequests(), ShouldResemble, []string{"a.ts", "b.ts", "c.ts"})
			So(sink.started, ShouldResemble, []int64{3})
			So(sink.advances, ShouldResemble, []int64{1, 1, 1})
			So(sink.finished, ShouldEqual, 1)
		})

		Convey("The size estimate is reported after every segment", func() {
			So(Assemble(ctx, client, variant, "out.ts", sink, Options{}), ShouldBeNil)
			So(len(sink.messages), ShouldEqual, 3)
			So(sink.messages[0], ShouldEqual, "3 B / ~9 B")
			So(sink.messages[2], ShouldEqual, "8 B / ~8 B")
		})

		Convey("An existing file is truncated", func() {
			So(afero.WriteFile(filesystem.API(), "out.ts", []byte(strings.Repeat("x", 64)), 0o644), ShouldBeNil)
			So(Assemble(ctx, client, variant, "out.ts", sink, Options{}), ShouldBeNil)
			So(read("out.ts"), ShouldEqual, "AAABBBCC")
		})

		Convey("Parallel assembly produces the same bytes", func() {
			So(Assemble(ctx, client, variant, "out.ts", sink, Options{Parallel: 3}), ShouldBeNil)
			So(read("out.ts"), ShouldEqual, "AAABBBCC")
			So(len(server.segmentRequests()), ShouldEqual, 3)
			So(sink.total(), ShouldEqual, 3)
		})

		Reset(filesystem.SetOsFs)
	})

	Convey("Given a variant whose second segment fails", t, func() {
		filesystem.SetMemMapFs()
		server.reset()

		variant := &hls.Variant{URI: server.URL + "/broken/index.m3u8"}
		sink := &recordingSink{}

		Convey("Sequential assembly stops at segment #1 and keeps the partial file", func() {
			err := Assemble(ctx, client, variant, "out.ts", sink, Options{})
			So(errors.Is(err, ErrSegmentDownload), ShouldBeTrue)

			var segmentErr *SegmentError
			So(errors.As(err, &segmentErr), ShouldBeTrue)
			So(segmentErr.Index, ShouldEqual, 1)

			var statusErr *network.StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)
			So(statusErr.Code, ShouldEqual, http.StatusInternalServerError)

			So(read("out.ts"), ShouldStartWith, "AAA")
			So(server.segmentRequests(), ShouldResemble, []string{"a.ts", "fail.ts"})
			So(sink.finished, ShouldEqual, 1)
		})

		Convey("Parallel assembly reports the same index", func() {
			err := Assemble(ctx, client, variant, "out.ts", sink, Options{Parallel: 3})

			var segmentErr *SegmentError
			So(errors.As(err, &segmentErr), ShouldBeTrue)
			So(segmentErr.Index, ShouldEqual, 1)
			So(read("out.ts"), ShouldEqual, "AAA")
			So(sink.finished, ShouldEqual, 1)
		})

		Convey("Segments before the failed one are written even when they finish after it", func() {
			variant := &hls.Variant{URI: server.URL + "/late/index.m3u8"}
			err := Assemble(ctx, client, variant, "out.ts", sink, Options{Parallel: 3})

			var segmentErr *SegmentError
			So(errors.As(err, &segmentErr), ShouldBeTrue)
			So(segmentErr.Index, ShouldEqual, 1)

			var statusErr *network.StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)

			So(read("out.ts"), ShouldEqual, "AAA")
			So(len(sink.advances), ShouldEqual, 1)
		})

		Reset(filesystem.SetOsFs)
	})

	Convey("Given many segments finishing out of order", t, func() {
		filesystem.SetMemMapFs()
		server.reset()

		variant := &hls.Variant{URI: server.URL + "/many/index.m3u8"}
		sink := &recordingSink{}

		var expected bytes.Buffer
		for i := 0; i < 20; i++ {
			fmt.Fprintf(&expected, "[%02d]", i)
		}

		Convey("Bytes are written in playlist order", func() {
			So(Assemble(ctx, client, variant, "out.ts", sink, Options{Parallel: 4}), ShouldBeNil)
			So(read("out.ts"), ShouldEqual, expected.String())
			So(len(sink.advances), ShouldEqual, 20)
		})

		Convey("No more than the configured number of segments are in flight", func() {
			So(Assemble(ctx, client, variant, "out.ts", sink, Options{Parallel: 4}), ShouldBeNil)
			So(server.peak.Load(), ShouldBeLessThanOrEqualTo, 4)
			So(server.peak.Load(), ShouldBeGreaterThan, 0)
		})

		Reset(filesystem.SetOsFs)
	})

	Convey("Given a segment whose body stalls", t, func() {
		filesystem.SetMemMapFs()

		timed := network.New(network.Options{Timeout: 200 * time.Millisecond})
		variant := &hls.Variant{URI: server.URL + "/stall/index.m3u8"}
		sink := &recordingSink{}

		Convey("Sequential assembly gives up after the configured timeout", func() {
			started := time.Now()
			err := Assemble(ctx, timed, variant, "out.ts", sink, Options{})
			So(time.Since(started), ShouldBeLessThan, 3*time.Second)

			var segmentErr *SegmentError
			So(errors.As(err, &segmentErr), ShouldBeTrue)
			So(segmentErr.Index, ShouldEqual, 1)
			So(read("out.ts"), ShouldStartWith, "AAA")
			So(sink.finished, ShouldEqual, 1)
		})

		Reset(filesystem.SetOsFs)
	})

	Convey("Given an unusable media playlist", t, func() {
		filesystem.SetMemMapFs()

		variant := &hls.Variant{URI: server.URL + "/garbage/index.m3u8"}
		err := Assemble(ctx, client, variant, "out.ts", &recordingSink{}, Options{})

		Convey("The manifest error is returned and no file is created", func() {
			So(errors.Is(err, hls.ErrManifestInvalid), ShouldBeTrue)
			exists, _ := filesystem.API().Exists("out.ts")
			So(exists, ShouldBeFalse)
		})

		Reset(filesystem.SetOsFs)
	})

	Convey("Given a cancelled context", t, func() {
		filesystem.SetMemMapFs()

		variant := &hls.Variant{URI: server.URL + "/many/index.m3u8"}
		_, err := variant.Segments(ctx, client)
		So(err, ShouldBeNil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		for _, parallel := range []int{1, 4} {
			err := Assemble(cancelled, client, variant, "out.ts", &recordingSink{}, Options{Parallel: parallel})
			So(errors.Is(err, ErrSegmentDownload), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		}

		Reset(filesystem.SetOsFs)
	})
}

func TestDirect(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 10_000)

	mux := http.NewServeMux()
	mux.HandleFunc("/files/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		_, _ = w.Write(payload)
	})
	mux.HandleFunc("/files/missing.mp4", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/files/short.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("0123456789"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := network.Wrap(server.Client())
	ctx := context.Background()

	Convey("Given a direct media URL", t, func() {
		filesystem.SetMemMapFs()
		sink := &recordingSink{}

		Convey("The body is copied and progress counts bytes", func() {
			So(Direct(ctx, client, server.URL+"/files/video.mp4", "video.mp4", sink), ShouldBeNil)

			data, err := afero.ReadFile(filesystem.API(), "video.mp4")
			So(err, ShouldBeNil)
			So(bytes.Equal(data, payload), ShouldBeTrue)

			So(sink.started, ShouldResemble, []int64{int64(len(payload))})
			So(sink.total(), ShouldEqual, len(payload))
			So(sink.finished, ShouldEqual, 1)
		})

		Convey("A missing file is a direct download error", func() {
			err := Direct(ctx, client, server.URL+"/files/missing.mp4", "video.mp4", sink)
			So(errors.Is(err, ErrDirectDownload), ShouldBeTrue)

			exists, _ := filesystem.API().Exists("video.mp4")
			So(exists, ShouldBeFalse)
		})

		Convey("A body cut short ends the progress line", func() {
			err := Direct(ctx, client, server.URL+"/files/short.mp4", "video.mp4", sink)
			So(errors.Is(err, ErrDirectDownload), ShouldBeTrue)
			So(sink.started, ShouldResemble, []int64{1000})
			So(sink.finished, ShouldEqual, 1)
		})

		Reset(filesystem.SetOsFs)
	})
}

func TestFilenameFromURL(t *testing.T) {
	Convey("FilenameFromURL", t, func() {
		So(FilenameFromURL("https://cdn.example.org/podcastcdn/video_1200.mp4?x=1"), ShouldEqual, "video_1200.mp4")
		So(FilenameFromURL("https://www.raiplay.it/video/2020/02/example-abc.html"), ShouldEqual, "example-abc.html")

		Convey("URLs without a path get a UUID", func() {
			name := FilenameFromURL("https://cdn.example.org/")
			So(len(name), ShouldEqual, 36)
			So(FilenameFromURL("https://cdn.example.org/"), ShouldNotEqual, name)
		})
	})
}
