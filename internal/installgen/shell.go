package installgen

import "strings"

// shellQuote 将任意字符串包成单引号字面量，内部的 ' 写成 '\''。
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// jsonStringEscape 只处理 JSON 字符串中必须转义的 \ 与 "（控制字符已在 Resolve 阶段排除）。
func jsonStringEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// sedReplacementEscape 转义 sed s||| 替换部分中的 \、分隔符 | 与 &。
func sedReplacementEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `|`, `\|`)
	return strings.ReplaceAll(s, `&`, `\&`)
}
