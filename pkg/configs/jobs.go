package configs

import (
	"time"

	"github.com/spf13/viper"
)

// JobsConfig 定时任务配置.
type JobsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PurgeDraftsCron 清理过期草稿构建包的 cron 表达式.
	PurgeDraftsCron string `mapstructure:"purge_drafts_cron" rule:"required"`
	// DraftTTL 草稿构建包最后一次更新后保留的时长.
	DraftTTL time.Duration `mapstructure:"draft_ttl" rule:"min=1m"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.purge_drafts_cron", "*/30 * * * *")
	v.SetDefault("jobs.draft_ttl", "24h")
}
