package network_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/network/networktest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/video/2024/01/page.html", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/files/video.mp4", http.StatusFound)
	})
	mux.HandleFunc("/files/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()

	Convey("Given a client pointed at a test server", t, func() {
		client := network.Wrap(server.Client())

		Convey("Get forwards extra headers", func() {
			header := http.Header{}
			header.Set("User-Agent", "rpdl-test")

			resp, err := client.Get(ctx, server.URL+"/echo", header)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.Header.Get("X-Agent"), ShouldEqual, "rpdl-test")
		})

		Convey("Head sends no user agent and reports the final URL", func() {
			final, err := client.Head(ctx, server.URL+"/video/2024/01/page.html")
			So(err, ShouldBeNil)
			So(final, ShouldEqual, server.URL+"/files/video.mp4")
		})

		Convey("Fetch reads the body", func() {
			body, resp, err := network.Fetch(ctx, client, server.URL+"/echo", nil)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "hello")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("Fetch turns a 404 into a StatusError", func() {
			_, _, err := network.Fetch(ctx, client, server.URL+"/missing", nil)
			So(err, ShouldNotBeNil)

			var statusErr *network.StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)
			So(statusErr.Code, ShouldEqual, http.StatusNotFound)
			So(statusErr.URL, ShouldEqual, server.URL+"/missing")
		})
	})

	Convey("Given a client built from options", t, func() {
		client := network.New(network.Options{Timeout: 5 * time.Second})

		Convey("It talks to plain HTTP servers", func() {
			body, _, err := network.Fetch(ctx, client, server.URL+"/echo", nil)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "hello")
		})
	})

	Convey("Given a rewriting test client", t, func() {
		client := networktest.Client(server, "raiplay.it")

		Convey("Portal URLs reach the test server", func() {
			body, resp, err := network.Fetch(ctx, client, "https://www.raiplay.it/echo", nil)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "hello")
			So(resp.Request.URL.String(), ShouldEqual, "https://www.raiplay.it/echo")
		})
	})
}
