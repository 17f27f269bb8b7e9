package raiplay

import (
	"path/filepath"
	"strings"

	"github.com/rpdl/rpdl/download"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/hls"
	"github.com/rpdl/rpdl/sanitize"
	"github.com/spf13/afero"
)

// VideoInfos aggregates everything known about one video.
type VideoInfos struct {
	PageURL string `json:"-"`

	// DirectURL is where a HEAD on the master playlist URL ends up after redirects.
	DirectURL string         `json:"mp4_url" jsonschema:"description=Final URL of a redirect-following HEAD on the master playlist"`
	Metadata  *Metadata      `json:"infos"`
	Variants  []*hls.Variant `json:"m3u8_variants" jsonschema:"description=Variants with a resolution in master playlist order"`
}

// Title is the display title of the video.
func (v *VideoInfos) Title() string {
	if v.Metadata == nil {
		return ""
	}

	if name := v.Metadata.Name(); name != "" {
		return name
	}
	return v.Metadata.ProgramName()
}

// Filename is the sanitized title without extension. Untitled videos are
// named after the page URL.
func (v *VideoInfos) Filename() string {
	if name := sanitize.Sanitize(v.Title()); strings.TrimSpace(name) != "" {
		return name
	}

	base := download.FilenameFromURL(v.PageURL)
	return sanitize.Sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
}

// WriteSidecar writes infos as indented JSON to path.
func (v *VideoInfos) WriteSidecar(path string) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}

	return afero.WriteFile(filesystem.API(), path, append(data, '\n'), 0o644)
}
