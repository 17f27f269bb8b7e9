// Package sanitize turns arbitrary display titles into filenames that are safe on
// both POSIX and Windows filesystems.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"github.com/rpdl/rpdl/log"
	"github.com/samber/lo"
)

// MaxLength bounds the sanitized name in bytes.
//
// Bytes are counted, not runes. Filesystems with stricter per-component limits
// (eCryptfs allows about 143 bytes) may still reject a name at this length.
const MaxLength = 248

// DefaultReplacement substitutes every banned character.
const DefaultReplacement = '!'

// Target selects which platform rules are applied.
type Target int

const (
	Both Target = iota
	Windows
	Unix
)

func (t Target) windows() bool { return t == Both || t == Windows }
func (t Target) unix() bool    { return t == Both || t == Unix }

// Options tunes sanitization. The zero value is not usable, start from DefaultOptions.
type Options struct {
	Replacement rune
	Target      Target
	Verbose     bool
}

// DefaultOptions returns '!' as replacement, rules for both platforms and no logging.
func DefaultOptions() Options {
	return Options{
		Replacement: DefaultReplacement,
		Target:      Both,
	}
}

var (
	windowsBanned = []byte{'<', '>', ':', '"', '/', '\\', '*', '|', '?'}
	unixBanned    = []byte{'/', 0x00}

	reservedNames = []string{
		"CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
	}
)

// Sanitize applies DefaultOptions to name.
func Sanitize(name string) string {
	return SanitizeWith(name, DefaultOptions())
}

// SanitizeWith makes name safe as a filename on the platforms selected by options.
func SanitizeWith(name string, options Options) string {
	replacement := byte(DefaultReplacement)
	if r := options.Replacement; r > 0 && r < utf8.RuneSelf && !isBanned(byte(r)) {
		replacement = byte(r)
	}

	debugf := func(format string, args ...any) {
		if options.Verbose {
			log.Debugf(format, args...)
		}
	}

	name = truncate(name, MaxLength)

	if options.Target.windows() {
		var marks []int
		mark := func(name string) string {
			marked, at := markReserved(name)
			if at < 0 {
				return name
			}

			debugf("windows reserved file name in %q", name)
			for i := range marks {
				if marks[i] >= at {
					marks[i]++
				}
			}
			marks = append(marks, at)
			return marked
		}

		name = mark(name)
		name = replaceBytes(name, replacement, func(b byte) bool {
			return b < 0x20 || lo.Contains(windowsBanned, b)
		})

		// separators are gone, so the trailing component is now the whole name
		name = mark(name)

		for len(name) > MaxLength {
			name, marks = shrinkAround(name, marks)
		}
	}

	if options.Target.unix() {
		name = replaceBytes(name, replacement, func(b byte) bool {
			return lo.Contains(unixBanned, b)
		})
	}

	debugf("sanitized file name: %q", name)
	return name
}

func isBanned(b byte) bool {
	return b < 0x20 || lo.Contains(windowsBanned, b)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := max
	for i := 0; i < utf8.UTFMax-1 && cut > 0 && !utf8.RuneStart(s[cut]); i++ {
		cut--
	}
	return s[:cut]
}

// markReserved appends the mark to a reserved DOS device name in the trailing
// path component. Windows reserves the name regardless of extension, so the
// stem before the first dot is checked. It returns the index of the inserted
// mark, or -1.
func markReserved(name string) (string, int) {
	component := name
	switch {
	case strings.HasSuffix(component, ".."):
		component = component[:len(component)-2]
	case strings.HasSuffix(component, "/"):
		component = component[:len(component)-1]
	}
	component = strings.TrimRight(component, "/")

	start := strings.LastIndexByte(component, '/') + 1
	stem := component[start:]
	if dot := strings.IndexByte(stem, '.'); dot >= 0 {
		stem = stem[:dot]
	}

	trimmed := strings.TrimSpace(stem)
	if !lo.Contains(reservedNames, strings.ToUpper(trimmed)) {
		return name, -1
	}

	at := start + strings.Index(stem, trimmed) + len(trimmed)
	return name[:at] + string(DefaultReplacement) + name[at:], at
}

// shrinkAround drops one rune so the name moves towards MaxLength. A rune is
// dropped from the end unless the last byte is a mark, then from the front.
func shrinkAround(name string, marks []int) (string, []int) {
	if !lo.Contains(marks, len(name)-1) {
		_, size := utf8.DecodeLastRuneInString(name)
		return name[:len(name)-size], marks
	}

	_, size := utf8.DecodeRuneInString(name)
	return name[size:], lo.Map(marks, func(at int, _ int) int { return at - size })
}

func replaceBytes(s string, replacement byte, banned func(byte) bool) string {
	if strings.IndexFunc(s, func(r rune) bool { return r < utf8.RuneSelf && banned(byte(r)) }) < 0 {
		return s
	}

	b := []byte(s)
	for i, c := range b {
		if banned(c) {
			b[i] = replacement
		}
	}
	return string(b)
}
