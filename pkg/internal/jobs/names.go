package jobs

// 任务名称常量.
const (
	JobPurgeDrafts = "kits.purge_drafts"
)
