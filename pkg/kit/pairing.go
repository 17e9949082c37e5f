package kit

import (
	"slices"

	"github.com/google/uuid"
)

// PairType 配对类型的静态描述.
type PairType struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	RequiredKinds []Kind `json:"required_kinds"`
}

// Requires 是否需要该类型.
func (p PairType) Requires(k Kind) bool {
	return slices.Contains(p.RequiredKinds, k)
}

// 内置配对类型.
var (
	PairLoopMIDI = PairType{
		Name:          "Loop + MIDI",
		Description:   "An audio loop with the MIDI it was rendered from",
		RequiredKinds: []Kind{KindAudio, KindMIDI},
	}
	PairLoopMIDIPreset = PairType{
		Name:          "Loop + MIDI + Preset",
		Description:   "An audio loop, its MIDI and the synth preset that played it",
		RequiredKinds: []Kind{KindAudio, KindMIDI, KindPreset},
	}
	PairMIDIPreset = PairType{
		Name:          "MIDI + Preset",
		Description:   "A MIDI part with the preset it is meant for",
		RequiredKinds: []Kind{KindMIDI, KindPreset},
	}
	PairLoopPreset = PairType{
		Name:          "Loop + Preset",
		Description:   "An audio loop with the preset used to create it",
		RequiredKinds: []Kind{KindAudio, KindPreset},
	}
)

// DefaultPairTypes 内置配对类型列表.
func DefaultPairTypes() []PairType {
	return []PairType{PairLoopMIDI, PairLoopMIDIPreset, PairMIDIPreset, PairLoopPreset}
}

// PairTypeByName 按名称查找内置配对类型.
func PairTypeByName(name string) (PairType, error) {
	for _, p := range DefaultPairTypes() {
		if p.Name == name {
			return p, nil
		}
	}

	return PairType{}, ErrUnknownPairType
}

// Pair 已提交的配对.
type Pair struct {
	ID      string   `json:"id"`
	Type    PairType `json:"type"`
	Members []FileID `json:"members"`
}

// RecordSource 配对引擎查询文件类型的来源（通常是 *Batch）.
type RecordSource interface {
	Kind(id FileID) (Kind, bool)
}

// PairingEngine 按配对类型约束选择文件并提交配对.
// 文件是否已被使用通过配对成员查找判断，不修改 FileRecord.
type PairingEngine struct {
	source    RecordSource
	pairType  PairType
	selection []FileID
	pairs     []Pair
	newID     func() string
}

// NewPairingEngine 创建配对引擎，初始配对类型为 pairType.
func NewPairingEngine(source RecordSource, pairType PairType) *PairingEngine {
	return &PairingEngine{
		source:   source,
		pairType: pairType,
		newID:    uuid.NewString,
	}
}

// PairType 当前配对类型.
func (e *PairingEngine) PairType() PairType { return e.pairType }

// Selection 当前选择（有序）.
func (e *PairingEngine) Selection() []FileID { return slices.Clone(e.selection) }

// Pairs 已提交的配对.
func (e *PairingEngine) Pairs() []Pair { return slices.Clone(e.pairs) }

// IsSelected 文件是否在当前选择中.
func (e *PairingEngine) IsSelected(id FileID) bool {
	return slices.Contains(e.selection, id)
}

// IsItemInAnyPair 文件是否已属于某个已提交配对.
func (e *PairingEngine) IsItemInAnyPair(id FileID) bool {
	for _, p := range e.pairs {
		if slices.Contains(p.Members, id) {
			return true
		}
	}

	return false
}

// Toggle 选中或取消选中文件. 取消总是合法；选中时检查类型与重复.
func (e *PairingEngine) Toggle(id FileID) error {
	if idx := slices.Index(e.selection, id); idx >= 0 {
		e.selection = slices.Delete(e.selection, idx, idx+1)
		return nil
	}

	kind, ok := e.source.Kind(id)
	if !ok {
		return ErrRecordNotFound
	}

	if e.IsItemInAnyPair(id) {
		return ErrAlreadyPaired
	}

	if !e.pairType.Requires(kind) {
		return ErrPairingTypeMismatch
	}

	for _, sel := range e.selection {
		if k, _ := e.source.Kind(sel); k == kind {
			return ErrPairingDuplicateKind
		}
	}

	e.selection = append(e.selection, id)

	return nil
}

// ChangePairType 切换配对类型，只保留新类型仍需要的文件，返回被移除的文件.
// 返回值非空时调用方应提示用户（非致命）.
func (e *PairingEngine) ChangePairType(pt PairType) []FileID {
	e.pairType = pt

	var (
		kept    []FileID
		dropped []FileID
	)

	for _, id := range e.selection {
		if k, ok := e.source.Kind(id); ok && pt.Requires(k) {
			kept = append(kept, id)
		} else {
			dropped = append(dropped, id)
		}
	}

	e.selection = kept

	return dropped
}

// MissingKinds 当前选择尚缺的类型.
func (e *PairingEngine) MissingKinds() []Kind {
	have := make(map[Kind]struct{}, len(e.selection))

	for _, id := range e.selection {
		if k, ok := e.source.Kind(id); ok {
			have[k] = struct{}{}
		}
	}

	var missing []Kind

	for _, k := range e.pairType.RequiredKinds {
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}

	return missing
}

// Commit 选择恰好覆盖每个必需类型一次时冻结为配对并清空选择.
func (e *PairingEngine) Commit() (Pair, error) {
	if missing := e.MissingKinds(); len(missing) > 0 {
		return Pair{}, &PairingMissingKindsError{PairType: e.pairType.Name, Missing: missing}
	}

	if len(e.selection) != len(e.pairType.RequiredKinds) {
		return Pair{}, ErrPairingDuplicateKind
	}

	p := Pair{
		ID:      e.newID(),
		Type:    e.pairType,
		Members: slices.Clone(e.selection),
	}

	e.pairs = append(e.pairs, p)
	e.selection = nil

	return p, nil
}

// DeletePair 删除已提交的配对，成员重新可选.
func (e *PairingEngine) DeletePair(id string) error {
	idx := slices.IndexFunc(e.pairs, func(p Pair) bool { return p.ID == id })
	if idx < 0 {
		return ErrPairNotFound
	}

	e.pairs = slices.Delete(e.pairs, idx, idx+1)

	return nil
}

// Forget 文件从批次中删除后调用：移出选择并解散包含它的配对，返回被解散的配对 ID.
func (e *PairingEngine) Forget(id FileID) []string {
	if idx := slices.Index(e.selection, id); idx >= 0 {
		e.selection = slices.Delete(e.selection, idx, idx+1)
	}

	var dissolved []string

	e.pairs = slices.DeleteFunc(e.pairs, func(p Pair) bool {
		if slices.Contains(p.Members, id) {
			dissolved = append(dissolved, p.ID)
			return true
		}

		return false
	})

	return dissolved
}
