package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix 环境变量前缀，例如 BIKEDASH_DATA_FILE
const EnvPrefix = "BIKEDASH"

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataFile    string   `json:"data_file"`    // 数据文件路径(.csv 或 .xlsx)
	SheetName   string   `json:"sheet_name"`   // xlsx 数据所在工作表
	ListenAddr  string   `json:"listen_addr"`  // 页面监听地址
	Watch       bool     `json:"watch"`        // 数据文件变化时自动重新加载
	PidFile     string   `json:"pid_file"`     // 供 reload 工具发送 SIGHUP
	LogName     string   `json:"log_name"`     // 日志文件
	LogMaxSize  string   `json:"log_max_size"` // 形如 "10 * 1024 * 1024"
	LogStream   bool     `json:"log_stream"`   // 是否开放 /logs
	RotateCheck Duration `json:"rotate_check"` // 日志大小检查间隔

	Branding Branding `json:"branding"`
	Push     Push     `json:"push"`
}

// Branding 页面上可配置的文字和图片
type Branding struct {
	Title   string `json:"title"`    // 侧边栏标题
	Header  string `json:"header"`   // 页面主标题
	LogoURL string `json:"logo_url"` // 侧边栏图片
	Author  string `json:"author"`
	Caption string `json:"caption"` // 页脚
}

// Push 定时推送配置
type Push struct {
	WebhookURL    string   `json:"webhook_url"` // 为空则不推送
	Schedule      string   `json:"schedule"`    // cron 表达式，例如 "@every 24h"
	RetryTimes    int      `json:"retry_times"`
	RetryInterval Duration `json:"retry_interval"`
}

// DataConfig 数据列映射：标准列名 -> 数据文件中的列名
type DataConfig struct {
	Columns map[string]string `json:"columns"`
}

// envOverrides 允许通过环境变量覆盖 JSON 配置
type envOverrides struct {
	DataFile   string `envconfig:"DATA_FILE"`
	ListenAddr string `envconfig:"LISTEN_ADDR"`
	Watch      *bool  `envconfig:"WATCH"`
	LogName    string `envconfig:"LOG_NAME"`
	WebhookURL string `envconfig:"WEBHOOK_URL"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

// LoadConfig 进程内只加载一次配置
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = Load(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

// Load 读取两个配置文件并应用默认值和环境变量
func Load(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	cfg, dcfg, err := loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		return nil, nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, nil, err
	}
	applyDefaults(cfg)
	dcfg.fillColumns()

	return cfg, dcfg, nil
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	return waitForResults(cfgChan, dcfgChan, errChan)
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}

	if env.DataFile != "" {
		cfg.DataFile = env.DataFile
	}
	if env.ListenAddr != "" {
		cfg.ListenAddr = env.ListenAddr
	}
	if env.Watch != nil {
		cfg.Watch = *env.Watch
	}
	if env.LogName != "" {
		cfg.LogName = env.LogName
	}
	if env.WebhookURL != "" {
		cfg.Push.WebhookURL = env.WebhookURL
	}
	return nil
}

func applyDefaults(cfg *Config) {
	setDefault(&cfg.DataFile, "day.csv")
	setDefault(&cfg.SheetName, "day")
	setDefault(&cfg.ListenAddr, ":8501")
	setDefault(&cfg.PidFile, "dashboard.pid")
	setDefault(&cfg.LogName, "dashboard.log")
	setDefault(&cfg.LogMaxSize, "10 * 1024 * 1024")
	if cfg.RotateCheck <= 0 {
		cfg.RotateCheck = Duration(time.Minute)
	}

	setDefault(&cfg.Branding.Title, "Bike Rental Analysis")
	setDefault(&cfg.Branding.Header, "Bike Rental Analysis Dashboard")
	setDefault(&cfg.Branding.LogoURL, "https://github.com/dicodingacademy/assets/raw/main/logo.png")
	setDefault(&cfg.Branding.Author, "A. Kafaby Syairozie")
	setDefault(&cfg.Branding.Caption, "Copyright © 2024 A. Kafaby Syairozie")

	setDefault(&cfg.Push.Schedule, "@every 24h")
	if cfg.Push.RetryTimes <= 0 {
		cfg.Push.RetryTimes = 5
	}
	if cfg.Push.RetryInterval <= 0 {
		cfg.Push.RetryInterval = Duration(2 * time.Second)
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// 标准列名
const (
	ColDate       = "dteday"
	ColSeason     = "season"
	ColWeekday    = "weekday"
	ColWorkingDay = "workingday"
	ColTemp       = "temp"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColCount      = "cnt"
)

// CanonicalColumns 数据文件需要的列，dteday 可缺省
var CanonicalColumns = []string{
	ColDate, ColSeason, ColWeekday, ColWorkingDay, ColTemp, ColCasual, ColRegistered, ColCount,
}

// DefaultDataConfig 列名与标准列名一致时使用
func DefaultDataConfig() *DataConfig {
	dc := &DataConfig{}
	dc.fillColumns()
	return dc
}

func (dc *DataConfig) fillColumns() {
	mu.Lock()
	defer mu.Unlock()
	if dc.Columns == nil {
		dc.Columns = make(map[string]string, len(CanonicalColumns))
	}
	for _, c := range CanonicalColumns {
		if dc.Columns[c] == "" {
			dc.Columns[c] = c
		}
	}
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// GetColumn 返回标准列在数据文件中的列名
func (dc *DataConfig) GetColumn(canonical string) string {
	mu.RLock()
	defer mu.RUnlock()
	if v, ok := dc.Columns[canonical]; ok && v != "" {
		return v
	}
	return canonical
}

func (dc *DataConfig) SetColumn(canonical, source string) {
	mu.Lock()
	defer mu.Unlock()
	if dc.Columns == nil {
		dc.Columns = make(map[string]string)
	}
	dc.Columns[canonical] = source
}
