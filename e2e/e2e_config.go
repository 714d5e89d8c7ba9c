package e2e

import "os"

// installerURL 为被测安装服务的地址（如 http://127.0.0.1:8000）。
// 未设置 INSTALLER_URL 时，测试在进程内启动一个服务。
func installerURL() string {
	return os.Getenv("INSTALLER_URL")
}
