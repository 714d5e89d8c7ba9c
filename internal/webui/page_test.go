package webui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MarvinJWendt/testza"
	"github.com/tunescout/tunescout-installer/internal/installgen"
)

func defaultPage(t *testing.T) *PageYAML {
	t.Helper()
	def, err := LoadPage("")
	testza.AssertNoError(t, err)
	return def
}

func TestDefaultPage_MirrorsResolverKeys(t *testing.T) {
	def := defaultPage(t)
	testza.AssertNoError(t, def.Validate())
	testza.AssertLen(t, def.Forms, len(installgen.Profiles()))

	for _, f := range def.Forms {
		prof, err := installgen.ParseProfile(f.Profile)
		testza.AssertNoError(t, err)
		var names []string
		for _, field := range f.Fields {
			names = append(names, field.Name)
		}
		testza.AssertEqual(t, prof.Keys(), names)
	}
}

func TestValidate_DetectsDrift(t *testing.T) {
	def := defaultPage(t)
	def.Forms[0].Fields = def.Forms[0].Fields[1:]
	def.Forms[1].Fields = append(def.Forms[1].Fields, FieldYAML{Name: "colour"})

	err := def.Validate()
	testza.AssertNotNil(t, err)
	testza.AssertContains(t, err.Error(), `api: parameter "service_name" has no form field`)
	testza.AssertContains(t, err.Error(), `ui: field "colour" is not a recognized parameter`)
}

func TestValidate_MissingAndDuplicateForms(t *testing.T) {
	def := defaultPage(t)
	def.Forms = []FormYAML{def.Forms[0], def.Forms[0], {Profile: "worker"}}

	err := def.Validate()
	testza.AssertNotNil(t, err)
	testza.AssertContains(t, err.Error(), "duplicate form for api")
	testza.AssertContains(t, err.Error(), `unknown profile "worker"`)
	testza.AssertContains(t, err.Error(), "missing form for profile ui")
}

func TestLoadPage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.yaml")
	testza.AssertNoError(t, os.WriteFile(path, DefaultPageYAML(), 0o644))
	def, err := LoadPage(path)
	testza.AssertNoError(t, err)
	testza.AssertEqual(t, "TuneScout Installer", def.Title)

	_, err = LoadPage(filepath.Join(t.TempDir(), "missing.yaml"))
	testza.AssertNotNil(t, err)

	_, err = ParsePage([]byte("forms: ["))
	testza.AssertNotNil(t, err)
}

func TestPage_Render(t *testing.T) {
	page, err := NewPage(defaultPage(t), Options{PublicURL: "https://install.example.com/"})
	testza.AssertNoError(t, err)

	var buf bytes.Buffer
	testza.AssertNoError(t, page.Render(&buf))
	html := buf.String()

	testza.AssertContains(t, html, `data-route="/install-api"`)
	testza.AssertContains(t, html, `data-route="/install-ui"`)
	testza.AssertContains(t, html, `name="installation_path" placeholder="/var/www/tunescout_api"`)
	testza.AssertContains(t, html, `name="api_base_url" placeholder="http://127.0.0.1:50080"`)
	testza.AssertContains(t, html, `name="bind" placeholder="127.0.0.1:60080"`)
	testza.AssertContains(t, html, `"publicURL":"https://install.example.com"`)
	testza.AssertContains(t, html, `| sudo bash`)
	testza.AssertContains(t, html, `copying: ["copied", "failed"]`)

	for _, prof := range installgen.Profiles() {
		for _, k := range prof.Keys() {
			testza.AssertContains(t, html, `id="`+string(prof)+`-`+k+`"`)
		}
	}
}

func TestPage_RenderWithoutPublicURL(t *testing.T) {
	page, err := NewPage(defaultPage(t), Options{})
	testza.AssertNoError(t, err)
	var buf bytes.Buffer
	testza.AssertNoError(t, page.Render(&buf))
	testza.AssertContains(t, buf.String(), `"publicURL":""`)
	testza.AssertContains(t, buf.String(), "window.location.origin")
	// 客户端代码中不应出现写死的地址
	testza.AssertFalse(t, strings.Contains(buf.String(), "http://127.0.0.1:8000"))
}

func TestNewPage_RejectsInvalidDefinition(t *testing.T) {
	_, err := NewPage(&PageYAML{}, Options{})
	testza.AssertNotNil(t, err)
}
