package embedfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRead(t *testing.T) {
	Convey("Given tab, space and comma separated lines with blanks", t, func() {
		in := "0.1\t0.2\n\n0.3 0.4\r\n  \n0.5, 0.6\n"

		Convey("When read", func() {
			points, err := Read(strings.NewReader(in))

			Convey("Then blank lines are skipped", func() {
				So(err, ShouldBeNil)
				So(points, ShouldResemble, []mgl64.Vec2{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}})
			})
		})
	})

	Convey("Given malformed lines", t, func() {
		Convey("Then a missing coordinate names the line", func() {
			_, err := Read(strings.NewReader("0 0\n\n1\n"))
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 3")
		})

		Convey("Then a non-number is rejected", func() {
			_, err := Read(strings.NewReader("0 zero\n"))
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})
	})

	Convey("Given empty input", t, func() {
		points, err := Read(strings.NewReader(""))
		So(err, ShouldBeNil)
		So(points, ShouldBeEmpty)
	})
}

func TestLoadAndList(t *testing.T) {
	Convey("Given a directory of embeddings", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "b-perplexity30.tsv"), []byte("1 1\n"), 0o600), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "a-perplexity5.TSV"), []byte("0 0\n2 2\n"), 0o600), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600), ShouldBeNil)

		Convey("When listing", func() {
			paths, err := List(dir)

			Convey("Then only embedding files are returned, sorted", func() {
				So(err, ShouldBeNil)
				So(len(paths), ShouldEqual, 2)
				So(filepath.Base(paths[0]), ShouldEqual, "a-perplexity5.TSV")
			})

			Convey("And each loads", func() {
				points, err := Load(paths[0])
				So(err, ShouldBeNil)
				So(len(points), ShouldEqual, 2)
			})
		})

		Convey("When the directory is missing", func() {
			_, err := List(filepath.Join(dir, "nope"))
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
