// Package hls resolves HLS master playlists into quality variants and, on
// demand, each variant into its ordered list of segments.
package hls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/grafov/m3u8"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
	"github.com/samber/mo"
	"github.com/spf13/afero"
)

var (
	// ErrManifestInvalid is returned when a master or media playlist can not be parsed.
	ErrManifestInvalid = errors.New("invalid manifest")

	// ErrManifestFetch is returned when a playlist can not be retrieved.
	ErrManifestFetch = errors.New("manifest fetch failed")
)

// Segment is a single media chunk. Duration is informational, the position in
// the playlist is what matters.
type Segment struct {
	Duration float64
	URI      string
}

// Variant is one quality level listed in a master playlist.
type Variant struct {
	URI        string `json:"uri"`
	Bandwidth  uint32 `json:"bandwidth"`
	Resolution string `json:"resolution"`

	// Master is the master playlist exactly as it was fetched.
	Master []byte `json:"-"`

	mu       sync.Mutex
	segments mo.Option[[]*Segment]
}

// String returns e.g. "1280x720 (2.5 Mbps)".
func (v *Variant) String() string {
	return fmt.Sprintf("%s (%s)", v.Resolution, humanize.SIWithDigits(float64(v.Bandwidth), 1, "bps"))
}

// Resolved reports whether the segments were already fetched.
func (v *Variant) Resolved() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.segments.IsPresent()
}

// Segments returns the ordered segments of the variant. The media playlist is
// fetched on the first successful call only, later calls return the same slice.
func (v *Variant) Segments(ctx context.Context, client network.Client) ([]*Segment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if segments, ok := v.segments.Get(); ok {
		return segments, nil
	}

	data, resp, err := network.Fetch(ctx, client, v.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestFetch, v.URI, err)
	}

	segments, err := ParseMedia(data, resp.Request.URL)
	if err != nil {
		return nil, err
	}

	log.Debugf("variant %s has %d segments", v.Resolution, len(segments))
	v.segments = mo.Some(segments)
	return segments, nil
}

// SaveMaster writes the master playlist byte for byte to path.
func (v *Variant) SaveMaster(path string) error {
	return afero.WriteFile(filesystem.API(), path, v.Master, 0o644)
}

// FetchMaster downloads the master playlist with the given User-Agent and
// parses it. Relative variant URIs resolve against the URL the playlist was
// finally served from.
func FetchMaster(ctx context.Context, client network.Client, manifestURL, userAgent string) ([]*Variant, error) {
	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	data, resp, err := network.Fetch(ctx, client, manifestURL, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestFetch, manifestURL, err)
	}

	return ParseMaster(data, resp.Request.URL)
}

// ParseMaster decodes a master playlist. Entries without a RESOLUTION
// attribute are dropped, the rest keep their playlist order.
func ParseMaster(data []byte, base *url.URL) ([]*Variant, error) {
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok || listType != m3u8.MASTER {
		return nil, fmt.Errorf("%w: expected a master playlist", ErrManifestInvalid)
	}

	variants := make([]*Variant, 0, len(master.Variants))
	for _, entry := range master.Variants {
		if entry == nil || entry.Resolution == "" {
			continue
		}

		uri, err := resolve(base, entry.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: variant uri %q: %w", ErrManifestInvalid, entry.URI, err)
		}

		variants = append(variants, &Variant{
			URI:        uri,
			Bandwidth:  entry.Bandwidth,
			Resolution: entry.Resolution,
			Master:     data,
		})
	}

	log.Debugf("master playlist lists %d variants, %d with a resolution", len(master.Variants), len(variants))
	return variants, nil
}

// ParseMedia decodes a media playlist into its segments, in order.
func ParseMedia(data []byte, base *url.URL) ([]*Segment, error) {
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}

	media, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok || listType != m3u8.MEDIA {
		return nil, fmt.Errorf("%w: expected a media playlist", ErrManifestInvalid)
	}

	segments := make([]*Segment, 0, media.Count())
	for _, entry := range media.Segments {
		// the segment buffer is allocated ahead and padded with nils
		if entry == nil {
			continue
		}

		uri, err := resolve(base, entry.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: segment uri %q: %w", ErrManifestInvalid, entry.URI, err)
		}

		segments = append(segments, &Segment{
			Duration: entry.Duration,
			URI:      uri,
		})
	}

	return segments, nil
}

func resolve(base *url.URL, ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	if base == nil {
		return parsed.String(), nil
	}

	return base.ResolveReference(parsed).String(), nil
}
