// reload 通知正在运行的看板重新加载数据并重新打开日志文件
package main

import (
	"BikeRentalDashboard/src/config"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

func main() {
	pidFile := flag.String("pid", "", "看板进程的 pid 文件，默认取 config/config.json 中的 pid_file")
	flag.Parse()

	if *pidFile == "" {
		cfg, _, err := config.LoadConfig("./config", "config.json", "dataconfig.json")
		if err != nil {
			log.Fatal("加载配置失败:", err)
		}
		*pidFile = cfg.PidFile
	}

	pid, err := readPid(*pidFile)
	if err != nil {
		log.Fatal(err)
	}

	// 向看板进程发送 SIGHUP
	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
	fmt.Printf("已通知进程 %d 重新加载\n", pid)
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("读取pid文件失败: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid文件 %s 内容无效: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}
