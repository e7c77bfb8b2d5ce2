package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type sampleSpec struct {
	Gamma      float64 `yaml:"gamma"`
	Lambda     float64 `yaml:"lambda"`
	LayerSizes []int   `yaml:"layerSizes"`
}

const sampleYaml = `
$schema: "wheelly/agent.schema.json"
version: "1"
active: default
configurations:
  - name: default
    def:
      gamma: 0.97
      lambda: 0.8
      layerSizes: [8, 16, 4]
  - name: aggressive
    def:
      gamma: 0.99
      lambda: 0.9
      layerSizes: [8, 32, 4]
`

func writeSample(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yml")
	if err := os.WriteFile(path, []byte(sampleYaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEnvelope(t *testing.T) {
	Convey("Given a version/active/configurations YAML file", t, func() {
		path := writeSample(t)

		Convey("LoadEnvelope decodes the outer shape", func() {
			env, err := LoadEnvelope(path)
			So(err, ShouldBeNil)
			So(env.Active, ShouldEqual, "default")
			So(len(env.Configurations), ShouldEqual, 2)
		})
	})
}

func TestLoadSelected(t *testing.T) {
	Convey("Given an envelope whose active entry is 'default'", t, func() {
		path := writeSample(t)

		Convey("LoadSelected decodes the active entry's def into the caller's type", func() {
			spec, err := LoadSelected[sampleSpec](path)
			So(err, ShouldBeNil)
			So(spec.Gamma, ShouldEqual, 0.97)
			So(spec.Lambda, ShouldEqual, 0.8)
			So(spec.LayerSizes, ShouldResemble, []int{8, 16, 4})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := LoadSelected[sampleSpec]("/nonexistent/path.yml")
		Convey("LoadSelected returns an InvalidError", func() {
			So(err, ShouldNotBeNil)
			var invalid *InvalidError
			So(errorsAsInvalid(err, &invalid), ShouldBeTrue)
		})
	})
}

func errorsAsInvalid(err error, target **InvalidError) bool {
	if ie, ok := err.(*InvalidError); ok {
		*target = ie
		return true
	}
	return false
}
