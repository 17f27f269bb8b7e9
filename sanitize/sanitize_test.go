package sanitize

import (
	"strings"
	"testing"
	"testing/quick"

	. "github.com/smartystreets/goconvey/convey"
)

const banned = "/\\:*?\"<>|"

func hasBanned(s string) bool {
	if strings.ContainsAny(s, banned) {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			return true
		}
	}
	return false
}

func TestSanitize(t *testing.T) {
	Convey("Given reserved DOS device names", t, func() {
		Convey("CON.mp4 gets marked", func() {
			So(Sanitize("CON.mp4"), ShouldContainSubstring, "CON!")
			So(Sanitize("CON.mp4"), ShouldEqual, "CON!.mp4")
		})

		Convey("Padded names keep their padding", func() {
			out := Sanitize("    CON    .mp4")
			So(strings.Fields(out)[0], ShouldEqual, "CON!")
			So(hasBanned(out), ShouldBeFalse)
		})

		Convey("Lower case and numbered devices are detected", func() {
			So(Sanitize("lpt9"), ShouldEqual, "lpt9!")
			So(Sanitize("COM1.tar.gz"), ShouldEqual, "COM1!.tar.gz")
		})

		Convey("Names merely containing a device are left alone", func() {
			So(Sanitize("CONTEST.mp4"), ShouldEqual, "CONTEST.mp4")
			So(Sanitize("AUXILIARY"), ShouldEqual, "AUXILIARY")
		})

		Convey("A trailing slash is ignored when matching", func() {
			So(Sanitize("NUL/"), ShouldEqual, "NUL!!")
		})

		Convey("Only the trailing path component is matched", func() {
			So(Sanitize("Ep 1/CON"), ShouldEqual, "Ep 1!CON!")
			So(Sanitize("dir/CON.mp4"), ShouldEqual, "dir!CON!.mp4")
			So(Sanitize("a/b/NUL"), ShouldEqual, "a!b!NUL!")
			So(Sanitize("a/CON/.."), ShouldEqual, "a!CON!!..")
			So(Sanitize("CON/x.mp4"), ShouldEqual, "CON!x.mp4")
		})

		Convey("Names that become reserved once separators are replaced are marked", func() {
			So(Sanitize("CON.x/y"), ShouldEqual, "CON!.x!y")
			So(SanitizeWith("CO/", Options{Replacement: 'N', Target: Both}), ShouldEqual, "CON!")
		})

		Convey("Unix only targets do not mark", func() {
			So(SanitizeWith("CON.mp4", Options{Replacement: '!', Target: Unix}), ShouldEqual, "CON.mp4")
		})
	})

	Convey("Given banned characters", t, func() {
		Convey("Windows characters are replaced", func() {
			So(Sanitize(`a<b>c:d"e/f\g*h|i?j`), ShouldEqual, "a!b!c!d!e!f!g!h!i!j")
		})

		Convey("Control bytes are replaced", func() {
			So(Sanitize(string([]byte{'a', 0x07, 0x00, 0x05, 'b'})), ShouldEqual, "a!!!b")
		})

		Convey("Unix only targets replace the slash and NUL", func() {
			out := SanitizeWith("a/b:c\x00", Options{Replacement: '_', Target: Unix})
			So(out, ShouldEqual, "a_b:c_")
		})

		Convey("A custom replacement is honored", func() {
			So(SanitizeWith("a/b", Options{Replacement: '-', Target: Both}), ShouldEqual, "a-b")
		})

		Convey("A banned or multi-byte replacement falls back to the default", func() {
			So(SanitizeWith("a/b", Options{Replacement: '/', Target: Both}), ShouldEqual, "a!b")
			So(SanitizeWith("a/b", Options{Replacement: 'é', Target: Both}), ShouldEqual, "a!b")
		})

		Convey("Italian titles survive untouched", func() {
			title := "Ulisse: il piacere della scoperta - Il Gattopardo, il romanzo della Sicilia"
			So(Sanitize(title), ShouldEqual, strings.Replace(title, ":", "!", 1))
			So(Sanitize("Perché è così"), ShouldEqual, "Perché è così")
		})
	})

	Convey("Given long names", t, func() {
		Convey("They are truncated to MaxLength bytes", func() {
			out := Sanitize(strings.Repeat("2", MaxLength+100))
			So(len(out), ShouldEqual, MaxLength)
		})

		Convey("Truncation does not split a multi-byte rune", func() {
			out := Sanitize(strings.Repeat("è", MaxLength))
			So(len(out), ShouldBeLessThanOrEqualTo, MaxLength)
			So(strings.ToValidUTF8(out, "?"), ShouldEqual, out)
		})

		Convey("A marked device name at the limit stays within it", func() {
			out := Sanitize(strings.Repeat(" ", MaxLength-3) + "CON")
			So(len(out), ShouldEqual, MaxLength)
			So(out, ShouldEndWith, "CON!")

			out = Sanitize("CON." + strings.Repeat("x", MaxLength-4))
			So(len(out), ShouldEqual, MaxLength)
			So(out, ShouldStartWith, "CON!.")
		})
	})
}

func TestSanitizeProperties(t *testing.T) {
	config := &quick.Config{MaxCount: 2000}

	Convey("For arbitrary input", t, func() {
		Convey("The output never contains banned characters", func() {
			check := func(b []byte) bool { return !hasBanned(Sanitize(string(b))) }
			So(quick.Check(check, config), ShouldBeNil)
		})

		Convey("The output is at most MaxLength bytes", func() {
			check := func(b []byte, pad uint8) bool {
				s := strings.Repeat("x", int(pad)) + string(b) + strings.Repeat("y", int(pad))
				return len(Sanitize(s)) <= MaxLength
			}
			So(quick.Check(check, config), ShouldBeNil)
		})

		Convey("Sanitizing twice changes nothing", func() {
			check := func(s string) bool {
				once := Sanitize(s)
				return Sanitize(once) == once
			}
			So(quick.Check(check, config), ShouldBeNil)

			checkBytes := func(b []byte) bool {
				once := Sanitize(string(b))
				return Sanitize(once) == once
			}
			So(quick.Check(checkBytes, config), ShouldBeNil)
		})

		Convey("Device names with arbitrary padding and extensions stay idempotent", func() {
			for _, name := range reservedNames {
				for _, s := range []string{name, " " + name + " .ts", name + "..", "\t" + name, name + ".a/b", "x/" + name} {
					once := Sanitize(s)
					So(Sanitize(once), ShouldEqual, once)
					So(hasBanned(once), ShouldBeFalse)
					So(once, ShouldContainSubstring, name+"!")
				}
			}
		})
	})
}
