// Package raiplay turns a portal page URL into the video metadata, its quality
// variants and the direct media URL.
package raiplay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rpdl/rpdl/constant"
	"github.com/rpdl/rpdl/hls"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
)

var (
	// ErrInvalidURL is returned for URLs that are not portal video pages.
	ErrInvalidURL = errors.New("invalid url")

	// ErrMetadataFetch is returned when the metadata document can not be
	// retrieved or decoded, or lacks the master playlist URL.
	ErrMetadataFetch = errors.New("metadata fetch failed")
)

var pageURLPattern = regexp.MustCompile(`^http(s)?://(www\.)?` + regexp.QuoteMeta(constant.PortalHost) + `/video/\d{4}/\d{2}/[^.]+\.html$`)

// Options configures Extract.
type Options struct {
	// UserAgent is sent with the master playlist request.
	UserAgent string
}

// NormalizeURL validates page and returns its https form together with the
// URL of the metadata document.
func NormalizeURL(page string) (pageURL, metadataURL string, err error) {
	if !pageURLPattern.MatchString(page) {
		return "", "", fmt.Errorf("%w: %q is not a %s video page", ErrInvalidURL, page, constant.PortalHost)
	}

	pageURL = page
	if strings.HasPrefix(pageURL, "http://") {
		pageURL = pageURL[:4] + "s" + pageURL[4:]
	}

	metadataURL = strings.TrimSuffix(pageURL, ".html") + ".json"
	return pageURL, metadataURL, nil
}

// FetchMetadata downloads and decodes the metadata document.
func FetchMetadata(ctx context.Context, client network.Client, metadataURL string) (*Metadata, error) {
	data, _, err := network.Fetch(ctx, client, metadataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataFetch, err)
	}

	metadata, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrMetadataFetch, metadataURL, err)
	}

	log.Debugf("metadata %s: id %q, fields %v", metadataURL, metadata.ID(), metadata.Keys())
	return metadata, nil
}

// Extract resolves page into VideoInfos. Segments of the variants are not
// fetched, see hls.Variant.Segments.
func Extract(ctx context.Context, client network.Client, page string, options Options) (*VideoInfos, error) {
	pageURL, metadataURL, err := NormalizeURL(page)
	if err != nil {
		return nil, err
	}

	log.Infof("fetching metadata from %s", metadataURL)
	metadata, err := FetchMetadata(ctx, client, metadataURL)
	if err != nil {
		return nil, err
	}

	contentURL := metadata.ContentURL()
	if contentURL == "" {
		return nil, fmt.Errorf("%w: %s has no video.content_url", ErrMetadataFetch, metadataURL)
	}

	log.Infof("fetching master playlist from %s", contentURL)
	variants, err := hls.FetchMaster(ctx, client, contentURL, options.UserAgent)
	if err != nil {
		return nil, err
	}

	directURL, err := client.Head(ctx, contentURL)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve direct media url: %w", ErrMetadataFetch, err)
	}
	log.Debugf("direct media url resolved to %s", directURL)

	return &VideoInfos{
		PageURL:   pageURL,
		DirectURL: directURL,
		Metadata:  metadata,
		Variants:  variants,
	}, nil
}

// Encode returns the indented sidecar form of infos.
func Encode(infos *VideoInfos) ([]byte, error) {
	return json.MarshalIndent(infos, "", "  ")
}
