package installgen

// 外层脚本模板。所有 bash 逻辑里的值都在编译期以单引号字面量写入（q）；
// 只有 unit heredoc 正文通过 shell 变量展开，见 unit.go。
const scriptTemplates = `
{{- define "preamble" -}}
#!/usr/bin/env bash
#
# {{.Title}} installer
# release: {{.ReleaseURL}}
# unit:    {{.Config.UnitFile}}
#
# Review before piping to a root shell. Every step is idempotent: re-run the
# script to repair a partial install, nothing is rolled back automatically.
#
if [ "$(id -u)" -ne 0 ]; then
    echo "error: this installer must be run as root (pipe it to: sudo bash)" >&2
    exit 1
fi

set -e
set -o pipefail
{{end}}

{{- define "fetch" -}}
echo "==> Downloading release archive" {{q .ReleaseURL}}
curl -fsSL {{q .ReleaseURL}} | runuser -u {{q .Config.DaemonUser}} -- tar -xzf - -C {{q .Config.InstallationPath}} --strip-components=1
{{end}}

{{- define "unit" -}}
echo "==> Writing systemd unit" {{q .Config.UnitFile}}
{{- range .UnitVars}}
{{.Name}}={{q .Value}}
{{- end}}
cat > {{q .Config.UnitFile}} <<{{.UnitMarker}}
{{.Unit}}{{.UnitMarker}}
cat {{q .Config.UnitFile}}
{{end}}

{{- define "activate" -}}
echo "==> Activating" {{q .Config.ServiceName}}
systemctl daemon-reload
systemctl enable {{q .Config.ServiceName}}
systemctl restart {{q .Config.ServiceName}}
systemctl --no-pager status {{q .Config.ServiceName}} || true

echo "==> Done:" {{q .Config.ServiceName}} "is installed and running"
{{end}}

{{- define "api" -}}
{{template "preamble" .}}
echo "==> Provisioning" {{q .Config.InstallationPath}}
if [ ! -d {{q .Config.InstallationPath}} ]; then
    mkdir -p {{q .Config.InstallationPath}}
fi
chown {{q .Owner}} {{q .Config.InstallationPath}}

{{template "fetch" .}}
echo "==> Preparing Python environment" {{q .Venv}}
if ! command -v python3 >/dev/null 2>&1; then
    echo "error: python3 is required but was not found on PATH; install it and re-run this script" >&2
    exit 1
fi
if [ ! -d {{q .Venv}} ]; then
    runuser -u {{q .Config.DaemonUser}} -- python3 -m venv {{q .Venv}}
fi
runuser -u {{q .Config.DaemonUser}} -- {{q .Pip}} install --no-cache-dir --upgrade pip
if [ -f {{q .Requirements}} ]; then
    runuser -u {{q .Config.DaemonUser}} -- {{q .Pip}} install --no-cache-dir -r {{q .Requirements}}
fi
runuser -u {{q .Config.DaemonUser}} -- {{q .Pip}} install --no-cache-dir gunicorn

{{template "unit" .}}
{{template "activate" .}}
{{- end}}

{{- define "ui" -}}
{{template "preamble" .}}
echo "==> Provisioning" {{q .Config.InstallationPath}}
if [ -d {{q .Config.InstallationPath}} ]; then
    find {{q .Config.InstallationPath}} -mindepth 1 -maxdepth 1 ! -name node_modules -exec rm -rf {} +
else
    mkdir -p {{q .Config.InstallationPath}}
fi
chown {{q .Owner}} {{q .Config.InstallationPath}}

{{template "fetch" .}}
echo "==> Installing Node.js dependencies"
for bin in node npm; do
    if ! command -v "$bin" >/dev/null 2>&1; then
        echo "error: $bin is required but was not found on PATH; install Node.js and re-run this script" >&2
        exit 1
    fi
done
runuser -u {{q .Config.DaemonUser}} -- env npm_config_cache={{q .NPMCache}} npm --prefix {{q .Config.InstallationPath}} install --omit=dev
runuser -u {{q .Config.DaemonUser}} -- env npm_config_cache={{q .NPMCache}} npm --prefix {{q .Config.InstallationPath}} run build

echo "==> Setting apiBaseUrl to" {{q .Config.APIBaseURL}}
if [ -f {{q .UIConfig}} ] && grep -Eq {{q .PatchPattern}} {{q .UIConfig}}; then
    runuser -u {{q .Config.DaemonUser}} -- sed -i -E {{q .PatchExpr}} {{q .UIConfig}}
else
    echo "warning: apiBaseUrl not found in" {{q .UIConfig}} "- set it by hand; continuing" >&2
fi

{{template "unit" .}}
{{template "activate" .}}
{{- end}}
`
