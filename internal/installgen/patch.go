package installgen

import "regexp"

// UIConfigFile 为前端发布包内需要改写 apiBaseUrl 的 JSON 配置（相对安装目录）。
const UIConfigFile = "src/config.json"

// apiBaseURLPattern 同时用于生成脚本里的 grep -E / sed -E 与 Go 侧的 PatchAPIBaseURL，
// 只能使用 POSIX ERE 与 RE2 共有的语法。
const apiBaseURLPattern = `("apiBaseUrl"[[:space:]]*:[[:space:]]*)"[^"]*"`

var apiBaseURLRegex = regexp.MustCompile(apiBaseURLPattern)

// PatchAPIBaseURL 将 doc 中 apiBaseUrl 的值替换为 url，其余字节保持不变。
// 未找到该 key 时原样返回 doc 与 false。
func PatchAPIBaseURL(doc []byte, url string) ([]byte, bool) {
	if !apiBaseURLRegex.Match(doc) {
		return doc, false
	}
	value := []byte(`"` + jsonStringEscape(url) + `"`)
	out := apiBaseURLRegex.ReplaceAllFunc(doc, func(m []byte) []byte {
		sub := apiBaseURLRegex.FindSubmatch(m)
		patched := append([]byte(nil), sub[1]...)
		return append(patched, value...)
	})
	return out, true
}

// sedPatchExpression 生成与 PatchAPIBaseURL 等价的 sed -E 表达式（未加 shell 引号）。
func sedPatchExpression(url string) string {
	return `s|` + apiBaseURLPattern + `|\1"` + sedReplacementEscape(jsonStringEscape(url)) + `"|g`
}
