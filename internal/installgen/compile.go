package installgen

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"text/template"
)

// 脚本响应的固定元数据。
const (
	ScriptContentType  = "text/x-shellscript; charset=utf-8"
	ScriptCacheControl = "no-store"
)

// unitMarker 为 unit heredoc 的结束标记；值中不可能出现换行，因此不会与其冲突。
const unitMarker = "TUNESCOUT_UNIT"

var scripts = template.Must(template.New("scripts").
	Funcs(template.FuncMap{"q": shellQuote}).
	Parse(scriptTemplates))

// Artifact 为编译结果（ScriptArtifact），生成后不再修改。
type Artifact struct {
	Profile      Profile
	Body         []byte
	ContentType  string
	CacheControl string
	SHA256       string
	FileName     string
}

type scriptData struct {
	Config     Config
	Title      string
	ReleaseURL string
	Owner      string

	Unit       string
	UnitVars   []ShellVar
	UnitMarker string

	// api
	Venv         string
	Pip          string
	Requirements string

	// ui
	NPMCache     string
	UIConfig     string
	PatchPattern string
	PatchExpr    string
}

// Compile 把 Config 渲染成完整的安装脚本。输出只取决于 cfg，同样的输入得到逐字节相同的脚本。
// 渲染写入内存缓冲，失败时不会返回半截脚本。
func Compile(cfg Config) (*Artifact, error) {
	name := string(cfg.Profile)
	if scripts.Lookup(name) == nil {
		return nil, &RenderError{Stage: "script", Err: fmt.Errorf("unknown profile %q", cfg.Profile)}
	}

	unit, err := RenderUnit(cfg)
	if err != nil {
		return nil, err
	}

	base := cfg.InstallationPath
	data := scriptData{
		Config:     cfg,
		Title:      cfg.Profile.Title(),
		ReleaseURL: cfg.Profile.ReleaseURL(),
		Owner:      cfg.DaemonUser + ":" + cfg.DaemonGroup,
		Unit:       unit,
		UnitVars:   UnitVariables(cfg),
		UnitMarker: unitMarker,
	}
	switch cfg.Profile {
	case ProfileAPI:
		data.Venv = base + "/venv"
		data.Pip = base + "/venv/bin/pip"
		data.Requirements = base + "/requirements.txt"
	case ProfileUI:
		data.NPMCache = base + "/.npm"
		data.UIConfig = base + "/" + UIConfigFile
		data.PatchPattern = apiBaseURLPattern
		data.PatchExpr = sedPatchExpression(cfg.APIBaseURL)
	}

	var buf bytes.Buffer
	if err := scripts.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, &RenderError{Stage: "script", Err: err}
	}

	body := buf.Bytes()
	sum := sha256.Sum256(body)
	return &Artifact{
		Profile:      cfg.Profile,
		Body:         body,
		ContentType:  ScriptContentType,
		CacheControl: ScriptCacheControl,
		SHA256:       hex.EncodeToString(sum[:]),
		FileName:     cfg.ServiceName + "-install.sh",
	}, nil
}

// Build 是 Resolve + Compile 的组合，供 HTTP 与 CLI 共用。
func Build(p Profile, raw Params) (Config, *Artifact, error) {
	cfg := Resolve(p, raw)
	art, err := Compile(cfg)
	return cfg, art, err
}
