package kit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/kitvault/pkg/kit"
)

func TestMissingFields(t *testing.T) {
	cases := []struct {
		name string
		rec  kit.FileRecord
		want []kit.MissingField
	}{
		{"uncategorized", kit.FileRecord{Kind: kit.KindAudio}, []kit.MissingField{kit.FieldCategory}},
		{"full loop", kit.FileRecord{Kind: kit.KindAudio, Category: kit.CategoryFullLoop}, nil},
		{"one-shot", kit.FileRecord{Kind: kit.KindAudio, Category: kit.CategoryOneShot, Group: "Drums"}, []kit.MissingField{kit.FieldSubtype}},
		{"midi", kit.FileRecord{Kind: kit.KindMIDI, Category: kit.CategoryMIDI}, []kit.MissingField{kit.FieldSubtype}},
		{"midi done", kit.FileRecord{Kind: kit.KindMIDI, Category: kit.CategoryMIDI, Subtype: "Chords"}, nil},
		{"preset done", kit.FileRecord{Kind: kit.KindPreset, Category: kit.CategoryPreset, Subtype: "Lead"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.rec
			assert.Equal(t, tc.want, kit.MissingFields(&rec))
			assert.Equal(t, tc.want == nil, kit.IsOrganized(&rec))
		})
	}
}

func TestCheckSubmittableOrder(t *testing.T) {
	full := kit.FileRecord{ID: "f", Kind: kit.KindAudio, Category: kit.CategoryFullLoop}
	shot := kit.FileRecord{ID: "s", Kind: kit.KindAudio, Category: kit.CategoryOneShot}

	assert.ErrorIs(t, kit.CheckSubmittable([]kit.FileRecord{full, shot}, "f"), kit.ErrIncompleteOrganization)

	shot.Group, shot.Subtype = "Drums", "Kick"
	assert.ErrorIs(t, kit.CheckSubmittable([]kit.FileRecord{shot}, ""), kit.ErrMissingFullLoop)
	assert.ErrorIs(t, kit.CheckSubmittable([]kit.FileRecord{full, shot}, ""), kit.ErrMissingDefault)
	assert.ErrorIs(t, kit.CheckSubmittable([]kit.FileRecord{full, shot}, "s"), kit.ErrMissingDefault)
	assert.NoError(t, kit.CheckSubmittable([]kit.FileRecord{full, shot}, "f"))

	// an empty batch has no full loop
	assert.ErrorIs(t, kit.CheckSubmittable(nil, ""), kit.ErrMissingFullLoop)
}
