package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Launchpad LaunchpadConfig `mapstructure:"launchpad"`
	Task      TaskConfig      `mapstructure:"task"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	Sandbox bool   `mapstructure:"sandbox"` // 开放测试代币部署与铸造接口
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// LaunchpadConfig 募资工厂与锁仓工厂配置
type LaunchpadConfig struct {
	FactoryAddress     string `mapstructure:"factory_address"`
	LockFactoryAddress string `mapstructure:"lock_factory_address"`
	AdminAddress       string `mapstructure:"admin_address"`
	StableCoinAddress  string `mapstructure:"stable_coin_address"`
	StableCoinSymbol   string `mapstructure:"stable_coin_symbol"`
	RouterAddress      string `mapstructure:"router_address"`
	AggregatorAddress  string `mapstructure:"aggregator_address"`
	BaseDecimals       uint8  `mapstructure:"base_decimals"`      // 基础货币精度
	TokenFeeBP         uint64 `mapstructure:"token_fee_bp"`       // 代币手续费，万分比
	BaseFeeBP          uint64 `mapstructure:"base_fee_bp"`        // 基础货币手续费，万分比
	LockFee            string `mapstructure:"lock_fee"`           // 锁仓固定手续费（基础货币最小单位）
	LiquidityDeadline  int64  `mapstructure:"liquidity_deadline"` // 添加流动性截止时间（秒）
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"`  // 秒
	PoolSize int `mapstructure:"pool_size"` // 事件订阅协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Factory 工厂地址
func (l LaunchpadConfig) Factory() common.Address {
	return common.HexToAddress(l.FactoryAddress)
}

// LockFactory 锁仓工厂地址
func (l LaunchpadConfig) LockFactory() common.Address {
	return common.HexToAddress(l.LockFactoryAddress)
}

// Admin 管理员地址
func (l LaunchpadConfig) Admin() common.Address {
	return common.HexToAddress(l.AdminAddress)
}

// StableCoin 基础货币地址
func (l LaunchpadConfig) StableCoin() common.Address {
	return common.HexToAddress(l.StableCoinAddress)
}

// Router 默认路由地址
func (l LaunchpadConfig) Router() common.Address {
	return common.HexToAddress(l.RouterAddress)
}

// Aggregator 手续费归集地址
func (l LaunchpadConfig) Aggregator() common.Address {
	return common.HexToAddress(l.AggregatorAddress)
}

// LockFeeAmount 解析锁仓手续费
func (l LaunchpadConfig) LockFeeAmount() (*big.Int, error) {
	fee, ok := new(big.Int).SetString(l.LockFee, 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("invalid launchpad.lock_fee %q", l.LockFee)
	}
	return fee, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	for key, addr := range map[string]string{
		"launchpad.factory_address":      c.Launchpad.FactoryAddress,
		"launchpad.lock_factory_address": c.Launchpad.LockFactoryAddress,
		"launchpad.admin_address":        c.Launchpad.AdminAddress,
		"launchpad.stable_coin_address":  c.Launchpad.StableCoinAddress,
		"launchpad.router_address":       c.Launchpad.RouterAddress,
		"launchpad.aggregator_address":   c.Launchpad.AggregatorAddress,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a hex address: %q", key, addr)
		}
	}
	if c.Launchpad.TokenFeeBP > 10000 || c.Launchpad.BaseFeeBP > 10000 {
		return fmt.Errorf("launchpad fees must be within 0-10000 basis points")
	}
	if c.Task.Interval <= 0 || c.Task.PoolSize <= 0 {
		return fmt.Errorf("task.interval and task.pool_size must be positive")
	}
	if _, err := c.Launchpad.LockFeeAmount(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.sandbox", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "launchpad")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "launchpad.db")
	v.SetDefault("launchpad.factory_address", "0x00000000000000000000000000000000000fac70")
	v.SetDefault("launchpad.lock_factory_address", "0x000000000000000000000000000000000001ec70")
	v.SetDefault("launchpad.admin_address", "0x0000000000000000000000000000000000000ad1")
	v.SetDefault("launchpad.stable_coin_address", "0x00000000000000000000000000000000000005d1")
	v.SetDefault("launchpad.stable_coin_symbol", "USD")
	v.SetDefault("launchpad.router_address", "0x000000000000000000000000000000000000de70")
	v.SetDefault("launchpad.aggregator_address", "0x00000000000000000000000000000000000fee50")
	v.SetDefault("launchpad.base_decimals", 18)
	v.SetDefault("launchpad.token_fee_bp", 50)
	v.SetDefault("launchpad.base_fee_bp", 100)
	v.SetDefault("launchpad.lock_fee", "200000000000000000")
	v.SetDefault("launchpad.liquidity_deadline", 300)
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.pool_size", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// LoadFrom 从指定目录加载配置
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	// 自动读取环境变量, 例如 LAUNCHPAD_TOKEN_FEE_BP
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Warn("Could not find config file, using defaults: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load 按默认路径加载配置
func Load() *Config {
	cfg, err := LoadFrom(".", "./config", "/etc/launchpad")
	if err != nil {
		logger.Fatal("Unable to load config: %v", err)
	}
	return cfg
}
