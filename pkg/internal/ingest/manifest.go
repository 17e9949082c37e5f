package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/yeisme/kitvault/pkg/kit"
	"github.com/yeisme/kitvault/pkg/rule"
)

// Manifest 描述一次导入：文件及其分类、默认 Full Loop 与配对.
//
//	kit: 01J...            # 已有构建包，为空时按 name 创建
//	name: Night Drive
//	default: loop.wav
//	files:
//	  - path: stems/loop.wav
//	    category: Full Loop
//	  - path: stems/kick.wav
//	    category: One-Shot
//	    group: Drums
//	    subtype: Kick
//	pairs:
//	  - type: Loop + MIDI
//	    files: [loop.wav, loop.mid]
type Manifest struct {
	Kit     string         `mapstructure:"kit"`
	Name    string         `mapstructure:"name"    rule:"max=255"`
	Default string         `mapstructure:"default" rule:"omitempty,kit_filename"`
	Files   []ManifestFile `mapstructure:"files"   rule:"dive"`
	Pairs   []ManifestPair `mapstructure:"pairs"   rule:"dive"`

	dir string
}

// ManifestFile 一个文件. Path 相对清单所在目录；只改已有内容时可只写 Name.
type ManifestFile struct {
	Path     string `mapstructure:"path"`
	Name     string `mapstructure:"name"     rule:"omitempty,kit_filename"`
	MIME     string `mapstructure:"mime"`
	Category string `mapstructure:"category" rule:"omitempty,kit_category"`
	Group    string `mapstructure:"group"`
	Subtype  string `mapstructure:"subtype"`
}

// FileName 批次中使用的文件名.
func (f ManifestFile) FileName() string {
	if f.Name != "" {
		return f.Name
	}

	return filepath.Base(f.Path)
}

// ManifestPair 一个配对，Files 为文件名.
type ManifestPair struct {
	Type  string   `mapstructure:"type"  rule:"required"`
	Files []string `mapstructure:"files" rule:"required,min=1"`
}

// LoadManifest 读取 YAML/JSON/TOML 清单.
func LoadManifest(path string) (*Manifest, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := rule.ValidateStruct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	for i, f := range m.Files {
		if f.Path == "" && f.Name == "" {
			return nil, fmt.Errorf("invalid manifest: files[%d] needs a path or name", i)
		}
	}

	m.dir = filepath.Dir(path)

	return &m, nil
}

// ApplyReport 清单应用结果.
type ApplyReport struct {
	Added   []kit.FileRecord
	Updated []string
	Pairs   []kit.Pair
}

// Apply 将清单应用到会话：新文件加入批次，已有同名内容只修改分类，最后设置默认与配对.
// 任何本地校验错误都会返回，不发起网络请求.
func (m *Manifest) Apply(s *kit.Session) (*ApplyReport, error) {
	var (
		inputs []kit.FileInput
		report ApplyReport
	)

	for _, f := range m.Files {
		name := f.FileName()
		if rec, ok := s.Batch.Lookup(name); ok && rec.IsExisting {
			continue
		}

		if f.Path == "" {
			return nil, fmt.Errorf("%s: not in kit and no path given", name)
		}

		path := f.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.dir, path)
		}

		st, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if st.IsDir() {
			return nil, fmt.Errorf("%s: is a directory", name)
		}

		inputs = append(inputs, kit.FileInput{Name: name, Size: st.Size(), MIME: f.MIME, Path: path})
	}

	if len(inputs) > 0 {
		res, err := s.Add(inputs)
		if rejected := res.Err(); rejected != nil {
			return nil, rejected
		}

		if err != nil {
			return nil, err
		}
	}

	for _, f := range m.Files {
		rec, _ := s.Batch.Lookup(f.FileName())
		if err := organize(s.Batch, rec, f); err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Name, err)
		}

		rec, _ = s.Batch.Get(rec.ID)

		switch {
		case !rec.IsExisting:
			report.Added = append(report.Added, rec)
		case rec.IsModified():
			report.Updated = append(report.Updated, rec.Name)
		}
	}

	if m.Default != "" {
		rec, ok := s.Batch.Lookup(m.Default)
		if !ok {
			return nil, fmt.Errorf("default %s: %w", m.Default, kit.ErrRecordNotFound)
		}

		if err := s.Batch.SetDefault(rec.ID); err != nil {
			return nil, fmt.Errorf("default %s: %w", m.Default, err)
		}
	}

	pairs, err := m.pair(s)
	if err != nil {
		return nil, err
	}

	report.Pairs = pairs

	return &report, nil
}

// organize 只在值变化时调用对应的 setter，避免无谓地清空 group/subtype.
func organize(b *kit.Batch, rec kit.FileRecord, f ManifestFile) error {
	if f.Category != "" && f.Category != rec.Category {
		if err := b.SetCategory(rec.ID, f.Category); err != nil {
			return err
		}

		rec.Group, rec.Subtype = "", ""
	}

	if f.Group != "" && f.Group != rec.Group {
		if err := b.SetGroup(rec.ID, f.Group); err != nil {
			return err
		}

		rec.Subtype = ""
	}

	if f.Subtype != "" && f.Subtype != rec.Subtype {
		return b.SetSubtype(rec.ID, f.Subtype)
	}

	return nil
}

func (m *Manifest) pair(s *kit.Session) ([]kit.Pair, error) {
	var (
		pairs []kit.Pair
		errs  []error
	)

	for i, p := range m.Pairs {
		pt, err := kit.PairTypeByName(p.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("pairs[%d]: %w", i, err))
			continue
		}

		s.Pairing.ChangePairType(pt)

		if err := selectFiles(s, p.Files); err != nil {
			errs = append(errs, fmt.Errorf("pairs[%d]: %w", i, err))
			clearSelection(s.Pairing)

			continue
		}

		pair, err := s.Pairing.Commit()
		if err != nil {
			errs = append(errs, fmt.Errorf("pairs[%d]: %w", i, err))
			clearSelection(s.Pairing)

			continue
		}

		pairs = append(pairs, pair)
	}

	return pairs, errors.Join(errs...)
}

func selectFiles(s *kit.Session, names []string) error {
	for _, name := range names {
		rec, ok := s.Batch.Lookup(name)
		if !ok {
			return fmt.Errorf("%s: %w", name, kit.ErrRecordNotFound)
		}

		if err := s.Pairing.Toggle(rec.ID); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

func clearSelection(e *kit.PairingEngine) {
	for _, id := range e.Selection() {
		_ = e.Toggle(id)
	}
}
