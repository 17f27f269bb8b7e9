// Package history keeps track of the files rpdl has written.
package history

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/metafates/gache"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/where"
	"golang.org/x/exp/slices"
)

// Kind is the type of artifact a download produced.
type Kind string

const (
	KindStream   Kind = "ts"
	KindDirect   Kind = "mp4"
	KindManifest Kind = "m3u8"
	KindInfos    Kind = "json"
)

// Record describes one finished download.
type Record struct {
	Title      string    `json:"title"`
	ContentID  string    `json:"content_id,omitempty"`
	PageURL    string    `json:"page_url"`
	Path       string    `json:"path"`
	Kind       Kind      `json:"kind"`
	Resolution string    `json:"resolution,omitempty"`
	Size       int64     `json:"size"`
	SavedAt    time.Time `json:"saved_at"`
}

func (r *Record) String() string {
	s := fmt.Sprintf("%s [%s]", r.Title, r.Kind)
	if r.Resolution != "" {
		s += " " + r.Resolution
	}
	return fmt.Sprintf("%s, %s, %s", s, humanize.Bytes(uint64(r.Size)), humanize.Time(r.SavedAt))
}

var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every record keyed by output path.
func Get() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// List returns the records, newest first.
func List() ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(saved))
	for _, record := range saved {
		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b *Record) int {
		return b.SavedAt.Compare(a.SavedAt)
	})
	return records, nil
}

// Save stores record, replacing an earlier one for the same path.
func Save(record *Record) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	if record.SavedAt.IsZero() {
		record.SavedAt = time.Now()
	}

	saved[record.Path] = record
	return cacher.Set(saved)
}

// Remove forgets the record for path.
func Remove(path string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, path)
	return cacher.Set(saved)
}

// Clear forgets every record.
func Clear() error {
	return cacher.Set(make(map[string]*Record))
}
