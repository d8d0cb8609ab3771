package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Campaign   CampaignConfig   `mapstructure:"campaign"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`

	// 执行类接口（工作流执行、启动监控）按客户端限流
	ExecuteRatePerMinute int `mapstructure:"execute_rate_per_minute"`
	ExecuteBurst         int `mapstructure:"execute_burst"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 连接模式: standalone(单节点), sentinel(哨兵), cluster(集群)
	Mode string `mapstructure:"mode"`

	// 单节点模式配置
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// 哨兵模式配置
	MasterName       string   `mapstructure:"master_name"`
	SentinelAddrs    []string `mapstructure:"sentinel_addrs"`
	SentinelPassword string   `mapstructure:"sentinel_password"`

	// 集群模式配置
	ClusterAddrs []string `mapstructure:"cluster_addrs"`

	// 通用配置
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`

	// Enabled 为 false 时不连接 Redis，快照缓存与异步队列退回内存/同步实现
	Enabled bool `mapstructure:"enabled"`
}

// Addr 单节点地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, /path/to/log
}

// CampaignConfig 投放活动默认参数（Stage 1/2 的固定输入）
type CampaignConfig struct {
	Location     string   `mapstructure:"location"`
	Radius       int      `mapstructure:"radius"` // 公里
	DailyBudget  float64  `mapstructure:"daily_budget"`
	CampaignType string   `mapstructure:"campaign_type"`
	SeedKeywords []string `mapstructure:"seed_keywords"`
	TargetCPA    float64  `mapstructure:"target_cpa"`
	TargetROAS   float64  `mapstructure:"target_roas"`
}

// MissingFields 返回未配置的字段名，用于工作流启动时的告警
func (c CampaignConfig) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.Location) == "" {
		missing = append(missing, "location")
	}
	if c.DailyBudget <= 0 {
		missing = append(missing, "daily_budget")
	}
	if strings.TrimSpace(c.CampaignType) == "" {
		missing = append(missing, "campaign_type")
	}
	if len(c.SeedKeywords) == 0 {
		missing = append(missing, "seed_keywords")
	}
	return missing
}

// WithFallbacks 用占位值补齐缺失字段
func (c CampaignConfig) WithFallbacks() CampaignConfig {
	d := DefaultCampaign()
	if strings.TrimSpace(c.Location) == "" {
		c.Location = d.Location
	}
	if c.Radius <= 0 {
		c.Radius = d.Radius
	}
	if c.DailyBudget <= 0 {
		c.DailyBudget = d.DailyBudget
	}
	if strings.TrimSpace(c.CampaignType) == "" {
		c.CampaignType = d.CampaignType
	}
	if len(c.SeedKeywords) == 0 {
		c.SeedKeywords = append([]string(nil), d.SeedKeywords...)
	}
	if c.TargetCPA <= 0 {
		c.TargetCPA = d.TargetCPA
	}
	if c.TargetROAS <= 0 {
		c.TargetROAS = d.TargetROAS
	}
	return c
}

// DefaultCampaign 默认投放参数
func DefaultCampaign() CampaignConfig {
	return CampaignConfig{
		Location:     "Melbourne, VIC",
		Radius:       25,
		DailyBudget:  150,
		CampaignType: "search",
		SeedKeywords: []string{"security services", "security guards"},
		TargetCPA:    50,
		TargetROAS:   4,
	}
}

// MonitoringConfig 持续监控配置
type MonitoringConfig struct {
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	AutoStart       bool `mapstructure:"auto_start"`
}

// AlertsConfig 性能告警规则
type AlertsConfig struct {
	Rules []AlertRule `mapstructure:"rules"`
}

// AlertRule 单条告警规则，Expression 使用 govaluate 语法，可引用 ctr/cpc/cpa/roas/conversion_rate/cost 等变量
type AlertRule struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
	Severity   string `mapstructure:"severity"`
	Message    string `mapstructure:"message"`
}

// DefaultAlertRules 默认告警规则
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Name: "high_cpa", Expression: "cpa > target_cpa * 1.5", Severity: "critical", Message: "CPA is well above target"},
		{Name: "low_ctr", Expression: "ctr < 2", Severity: "warning", Message: "Click-through rate below 2%"},
		{Name: "low_roas", Expression: "roas < target_roas", Severity: "warning", Message: "ROAS below target"},
		{Name: "budget_pace", Expression: "cost > daily_budget * 0.9", Severity: "info", Message: "Daily budget nearly spent"},
	}
}

// DashboardConfig 看板配置
type DashboardConfig struct {
	PushIntervalSeconds int `mapstructure:"push_interval_seconds"`
	CacheTTLSeconds     int `mapstructure:"cache_ttl_seconds"`
}

var globalConfig *Config

// Load 加载配置
// env: 环境名称（dev, prod, test）
// configPath: 配置文件路径（可选）
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		v.SetConfigName(env) // dev.yaml, prod.yaml
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetConfigType("yaml")
	setDefaults(v)

	// 读取环境变量（优先级高于配置文件）
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // APP_CAMPAIGN_LOCATION

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 未找到配置文件时仅使用默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if len(cfg.Alerts.Rules) == 0 {
		cfg.Alerts.Rules = DefaultAlertRules()
	}

	globalConfig = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultCampaign()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.execute_rate_per_minute", 30)
	v.SetDefault("server.execute_burst", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.mode", "standalone")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("campaign.location", d.Location)
	v.SetDefault("campaign.radius", d.Radius)
	v.SetDefault("campaign.daily_budget", d.DailyBudget)
	v.SetDefault("campaign.campaign_type", d.CampaignType)
	v.SetDefault("campaign.seed_keywords", d.SeedKeywords)
	v.SetDefault("campaign.target_cpa", d.TargetCPA)
	v.SetDefault("campaign.target_roas", d.TargetROAS)

	v.SetDefault("monitoring.interval_minutes", 15)
	v.SetDefault("monitoring.auto_start", false)

	v.SetDefault("dashboard.push_interval_seconds", 5)
	v.SetDefault("dashboard.cache_ttl_seconds", 3600)
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}
