// Package webui 渲染运维表单页：每个 profile 一张表单，字段与参数解析器的 key 一一对应。
package webui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"github.com/tunescout/tunescout-installer/internal/installgen"
	"gopkg.in/yaml.v3"
)

//go:embed static/page.yaml static/index.html.tmpl
var staticFS embed.FS

const (
	defaultPagePath = "static/page.yaml"
	indexTemplate   = "static/index.html.tmpl"
)

// PageYAML 为表单页定义文件的结构。
type PageYAML struct {
	Title string     `yaml:"title"`
	Lang  string     `yaml:"lang"`
	Intro string     `yaml:"intro"`
	Forms []FormYAML `yaml:"forms"`
}

// FormYAML 单个 profile 的表单。
type FormYAML struct {
	Profile     string      `yaml:"profile"`
	Heading     string      `yaml:"heading"`
	Description string      `yaml:"description"`
	Fields      []FieldYAML `yaml:"fields"`
}

// FieldYAML 表单字段；Name 必须是解析器识别的参数名。
type FieldYAML struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Help  string `yaml:"help"`
}

// DefaultPageYAML 返回内嵌的页面定义原文。
func DefaultPageYAML() []byte {
	b, _ := staticFS.ReadFile(defaultPagePath)
	return b
}

// ParsePage 解析页面定义。
func ParsePage(data []byte) (*PageYAML, error) {
	var p PageYAML
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse page yaml: %w", err)
	}
	if p.Title == "" {
		p.Title = "TuneScout Installer"
	}
	if p.Lang == "" {
		p.Lang = "en"
	}
	return &p, nil
}

// LoadPage 读取 path 指定的页面定义；path 为空时使用内嵌定义。
func LoadPage(path string) (*PageYAML, error) {
	if strings.TrimSpace(path) == "" {
		return ParsePage(DefaultPageYAML())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePage(data)
}

// Validate 校验页面与解析器的契约：每个 profile 恰好一张表单，
// 字段集合与 Profile.Keys() 完全一致（不多不少、不重复）。
func (p *PageYAML) Validate() error {
	var problems []string
	seen := make(map[installgen.Profile]bool)
	for i, f := range p.Forms {
		prof, err := installgen.ParseProfile(f.Profile)
		if err != nil {
			problems = append(problems, fmt.Sprintf("forms[%d]: %v", i, err))
			continue
		}
		if seen[prof] {
			problems = append(problems, fmt.Sprintf("forms[%d]: duplicate form for %s", i, prof))
			continue
		}
		seen[prof] = true

		want := make(map[string]bool)
		for _, k := range prof.Keys() {
			want[k] = true
		}
		got := make(map[string]bool)
		for _, field := range f.Fields {
			switch {
			case got[field.Name]:
				problems = append(problems, fmt.Sprintf("%s: duplicate field %q", prof, field.Name))
			case !want[field.Name]:
				problems = append(problems, fmt.Sprintf("%s: field %q is not a recognized parameter", prof, field.Name))
			}
			got[field.Name] = true
		}
		for _, k := range prof.Keys() {
			if !got[k] {
				problems = append(problems, fmt.Sprintf("%s: parameter %q has no form field", prof, k))
			}
		}
	}
	for _, prof := range installgen.Profiles() {
		if !seen[prof] {
			problems = append(problems, fmt.Sprintf("missing form for profile %s", prof))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("page definition out of sync: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Options 渲染时注入的运行配置。
type Options struct {
	// PublicURL 为生成命令中使用的服务地址；为空时页面使用浏览器当前 origin。
	PublicURL string
}

type fieldView struct {
	Name        string
	Label       string
	Help        string
	Placeholder string
}

type formView struct {
	Profile     string
	Route       string
	Heading     string
	Description string
	Fields      []fieldView
}

type pageView struct {
	Title  string
	Lang   string
	Intro  string
	Forms  []formView
	Config template.JS
}

// Page 为可并发渲染的表单页。
type Page struct {
	tmpl *template.Template
	view pageView
}

// NewPage 校验页面定义并预先构建视图；渲染阶段不再读取外部状态。
func NewPage(def *PageYAML, opts Options) (*Page, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(staticFS, indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	view := pageView{Title: def.Title, Lang: def.Lang, Intro: def.Intro}
	for _, f := range def.Forms {
		prof, _ := installgen.ParseProfile(f.Profile)
		defaults := prof.Defaults()
		fv := formView{
			Profile:     string(prof),
			Route:       prof.Route(),
			Heading:     f.Heading,
			Description: f.Description,
		}
		for _, field := range f.Fields {
			fv.Fields = append(fv.Fields, fieldView{
				Name:        field.Name,
				Label:       field.Label,
				Help:        field.Help,
				Placeholder: defaults[field.Name],
			})
		}
		view.Forms = append(view.Forms, fv)
	}

	cfg, err := json.Marshal(map[string]string{
		"publicURL": strings.TrimRight(strings.TrimSpace(opts.PublicURL), "/"),
	})
	if err != nil {
		return nil, err
	}
	view.Config = template.JS(cfg)
	return &Page{tmpl: tmpl, view: view}, nil
}

// Render 渲染到内存后一次性写出，模板出错时不会写出半截页面。
func (p *Page) Render(w io.Writer) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html.tmpl", p.view); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
