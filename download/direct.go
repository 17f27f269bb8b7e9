package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/progress"
)

const chunkSize = 32 * 1024

// Direct copies the body of rawURL to outPath. The sink is started with the
// Content-Length, or 0 when the server does not send one, and advanced by the
// number of bytes in each chunk.
func Direct(ctx context.Context, client network.Client, rawURL, outPath string, sink progress.Sink) error {
	resp, err := client.Get(ctx, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirectDownload, err)
	}
	defer resp.Body.Close()

	if err := network.CheckStatus(resp); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectDownload, err)
	}

	file, err := filesystem.API().OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, outPath, err)
	}

	log.Infof("downloading %s into %s", rawURL, outPath)
	sink.Start(max(resp.ContentLength, 0))
	defer sink.Finish()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				_ = file.Close()
				return fmt.Errorf("%w: write %s: %w", ErrIO, outPath, err)
			}
			sink.Advance(int64(n))
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			_ = file.Close()
			return fmt.Errorf("%w: %w", ErrDirectDownload, readErr)
		}
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, outPath, err)
	}

	return nil
}

// FilenameFromURL returns the last path segment of rawURL, or a random UUID
// when there is none.
func FilenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return uuid.NewString()
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return uuid.NewString()
	}

	return base
}
