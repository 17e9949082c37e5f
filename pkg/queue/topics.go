// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：kv.<域>.<对象>.<动作>，尽量稳定且向后兼容.
// 域：kit(构建包)
// 动作：created/updated/changed/discarded

const (
	// 构建包领域.
	TopicKitCreated         = "kv.kit.created"          // 创建草稿构建包
	TopicKitContentsCreated = "kv.kit.contents.created" // 新文件元数据写入，构建包进入 ready
	TopicKitContentUpdated  = "kv.kit.content.updated"  // 已有内容的分类被修改
	TopicKitDefaultChanged  = "kv.kit.default.changed"  // 默认 Full Loop 变更
	TopicKitDiscarded       = "kv.kit.discarded"        // 构建包被丢弃（手动删除或草稿过期）
)

// TopicPatternKitAll 订阅全部构建包事件的通配模式.
const TopicPatternKitAll = "kv.kit.>"

// KitTopics 返回所有构建包主题.
func KitTopics() []string {
	return []string{
		TopicKitCreated,
		TopicKitContentsCreated,
		TopicKitContentUpdated,
		TopicKitDefaultChanged,
		TopicKitDiscarded,
	}
}
