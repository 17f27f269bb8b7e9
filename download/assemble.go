// Package download writes media to disk, either by concatenating the segments
// of an HLS variant or by copying a single URL.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/hls"
	"github.com/rpdl/rpdl/key"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/progress"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Options configures Assemble.
type Options struct {
	// Parallel is how many segments may be in flight at once. Values below 2
	// fetch one segment after the other.
	Parallel int
}

// OptionsFromConfig reads Options from the global configuration.
func OptionsFromConfig() Options {
	return Options{Parallel: viper.GetInt(key.DownloadParallel)}
}

// Assemble downloads every segment of variant and appends them, in playlist
// order, to outPath. The sink advances once per segment.
//
// On failure the partial file is left on disk.
func Assemble(ctx context.Context, client network.Client, variant *hls.Variant, outPath string, sink progress.Sink, options Options) error {
	segments, err := variant.Segments(ctx, client)
	if err != nil {
		return err
	}

	file, err := filesystem.API().OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, outPath, err)
	}

	log.Infof("assembling %d segments into %s", len(segments), outPath)

	est := &estimate{sink: sink, total: len(segments)}
	sink.Start(int64(len(segments)))

	if options.Parallel > 1 {
		err = assembleParallel(ctx, client, segments, file, est, options.Parallel)
	} else {
		err = assembleSequential(ctx, client, segments, file, est)
	}

	sink.Finish()

	if err != nil {
		_ = file.Close()
		log.Error(err)
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, outPath, err)
	}

	return nil
}

// estimate projects the final size from the segments written so far.
type estimate struct {
	sink  progress.Sink
	total int
	done  int
	bytes int64
}

func (e *estimate) segmentDone(index int, written int64, lengthKnown bool) {
	e.done++
	e.bytes += written

	log.Fields(logrus.Fields{"segment": index, "bytes": written}).Debug("segment written")

	e.sink.Advance(1)
	if lengthKnown {
		projected := e.bytes * int64(e.total) / int64(e.done)
		e.sink.SetMessage(fmt.Sprintf("%s / ~%s", humanize.Bytes(uint64(e.bytes)), humanize.Bytes(uint64(projected))))
	}
}

func assembleSequential(ctx context.Context, client network.Client, segments []*hls.Segment, w io.Writer, est *estimate) error {
	for i, segment := range segments {
		written, lengthKnown, err := copySegment(ctx, client, segment.URI, w)
		if err != nil {
			return &SegmentError{Index: i, Err: err}
		}

		est.segmentDone(i, written, lengthKnown)
	}

	return nil
}

func copySegment(ctx context.Context, client network.Client, uri string, w io.Writer) (int64, bool, error) {
	ctx, cancel := network.WithTimeout(ctx, client)
	defer cancel()

	resp, err := client.Get(ctx, uri, nil)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	if err := network.CheckStatus(resp); err != nil {
		return 0, false, err
	}

	written, err := io.Copy(w, resp.Body)
	return written, resp.ContentLength >= 0, err
}

type fetched struct {
	body        []byte
	lengthKnown bool
	err         error
}

// inflight tracks the running fetches. A failure at some index cancels the
// fetches after it and stops new ones from starting, while the ones before it
// run to completion so they can still be written.
type inflight struct {
	mu       sync.Mutex
	cancels  map[int]context.CancelFunc
	failedAt int
}

func newInflight(n int) *inflight {
	return &inflight{cancels: make(map[int]context.CancelFunc), failedAt: n}
}

func (f *inflight) start(parent context.Context, index int) (context.Context, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if index > f.failedAt {
		return nil, false
	}

	ctx, cancel := context.WithCancel(parent)
	f.cancels[index] = cancel
	return ctx, true
}

func (f *inflight) done(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cancel, ok := f.cancels[index]; ok {
		cancel()
		delete(f.cancels, index)
	}
}

func (f *inflight) fail(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if index >= f.failedAt {
		return
	}

	f.failedAt = index
	for i, cancel := range f.cancels {
		if i > index {
			cancel()
			delete(f.cancels, i)
		}
	}
}

// assembleParallel keeps up to parallel segments in flight. Each one holds a
// slot until the writer has appended it, so buffered bodies are bounded too.
// Segments before a failed one are still written, in order.
func assembleParallel(ctx context.Context, client network.Client, segments []*hls.Segment, w io.Writer, est *estimate, parallel int) error {
	inner, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan fetched, len(segments))
	for i := range results {
		results[i] = make(chan fetched, 1)
	}

	var (
		wg      sync.WaitGroup
		running = newInflight(len(segments))
		slots   = make(chan struct{}, parallel)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()

		for i, segment := range segments {
			var segmentCtx context.Context
			ok := false

			select {
			case slots <- struct{}{}:
				segmentCtx, ok = running.start(inner, i)
			case <-inner.Done():
			}

			if !ok {
				err := context.Cause(inner)
				if err == nil {
					err = context.Canceled
				}
				for j := i; j < len(segments); j++ {
					results[j] <- fetched{err: err}
				}
				return
			}

			wg.Add(1)
			go func(i int, uri string) {
				defer wg.Done()
				defer running.done(i)

				body, resp, err := network.Fetch(segmentCtx, client, uri, nil)
				if err != nil {
					running.fail(i)
					results[i] <- fetched{err: err}
					return
				}
				results[i] <- fetched{body: body, lengthKnown: resp.ContentLength >= 0}
			}(i, segment.URI)
		}
	}()

	var failure *SegmentError
	for i := range segments {
		result := <-results[i]
		if result.err != nil {
			failure = &SegmentError{Index: i, Err: result.err}
			break
		}

		written, err := w.Write(result.body)
		if err != nil {
			failure = &SegmentError{Index: i, Err: err}
			break
		}

		est.segmentDone(i, int64(written), result.lengthKnown)
		<-slots
	}

	if failure != nil {
		running.fail(failure.Index)
		cancel()
	}
	wg.Wait()

	if failure != nil {
		return failure
	}
	return nil
}
