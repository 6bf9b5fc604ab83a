package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetupLoggerCreatesReceptionLogFile(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("获取工作目录失败: %v", err)
	}
	defer func() {
		_ = os.Chdir(orig)
		log.SetOutput(os.Stderr)
	}()

	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("切换工作目录失败: %v", err)
	}

	if err := SetupLogger(); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}

	logFile := filepath.Join("logs", fmt.Sprintf("reception_%s.log", time.Now().Format("2006-01-02")))
	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("日志文件未创建: %v", err)
	}

	Info("[VISIT] 日志初始化检查 %d", 1)
	log.Printf("[PUSH] 标准 logger 汇入检查")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "INFO: ") || !strings.Contains(content, "[VISIT]") {
		t.Errorf("日志文件缺少 Info 输出: %q", content)
	}
	if !strings.Contains(content, "[PUSH]") {
		t.Errorf("标准 logger 输出未写入日志文件: %q", content)
	}
}
