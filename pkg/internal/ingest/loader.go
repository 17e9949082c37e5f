package ingest

import (
	"context"
	"fmt"

	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/kit"
)

// KitReader 读取构建包，*client.Client 实现了它.
type KitReader interface {
	GetKit(ctx context.Context, kitID string) (*types.KitResponse, error)
}

// LoadKit 读取已有构建包并生成批次，已有内容标记为 IsExisting 并保存原始分类快照.
func LoadKit(ctx context.Context, api KitReader, kitID string, opts ...kit.BatchOption) (*kit.Batch, error) {
	resp, err := api.GetKit(ctx, kitID)
	if err != nil {
		return nil, fmt.Errorf("load kit %s: %w", kitID, err)
	}

	b := kit.NewBatch(append(opts, kit.WithKitID(kitID))...)
	b.LoadExisting(RecordsFromKit(resp), resp.DefaultFullLoopID)

	return b, nil
}

// RecordsFromKit 将接口返回的内容转换为文件记录.
func RecordsFromKit(resp *types.KitResponse) []kit.FileRecord {
	records := make([]kit.FileRecord, 0, len(resp.Contents))

	for _, c := range resp.Contents {
		records = append(records, kit.FileRecord{
			Name:      c.ContentName,
			Kind:      contentKind(c),
			Category:  c.ContentType,
			Group:     c.SoundGroup,
			Subtype:   c.SubGroup,
			ContentID: c.ID,
			StreamURL: c.StreamURL,
		})
	}

	return records
}

// contentKind 分类能确定类型时以分类为准，否则按文件名判断.
func contentKind(c types.KitContent) kit.Kind {
	switch c.ContentType {
	case kit.CategoryMIDI:
		return kit.KindMIDI
	case kit.CategoryPreset:
		return kit.KindPreset
	case kit.CategoryOneShot, kit.CategorySampleLoop, kit.CategoryFullLoop:
		return kit.KindAudio
	}

	return kit.Classify(c.ContentName, "")
}
