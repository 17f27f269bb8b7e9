// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
//
// Every artifact the downloader writes (segments, manifests, sidecars, history) goes through
// the afero backend returned by API, so tests can swap in an in-memory filesystem.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance for filesystem interaction.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs switches to a volatile in-memory backend for unit tests.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// Size reports the size in bytes of the file at path.
func Size(path string) (int64, error) {
	info, err := backend.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
