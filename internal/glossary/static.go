package glossary

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-transflow/internal/config"
)

// StaticLookup 来自配置映射和 TOML 文件的固定术语表
type StaticLookup struct {
	ids map[string]string
}

var _ Lookup = (*StaticLookup)(nil)

// NewStaticLookup 合并配置映射（键形如 "en:ko"）与术语表文件，文件中的条目优先
func NewStaticLookup(pairs map[string]string, file string) (*StaticLookup, error) {
	s := &StaticLookup{ids: make(map[string]string)}

	for key, id := range pairs {
		source, target, ok := strings.Cut(key, ":")
		if !ok || strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("invalid glossary key %q, expected source:target", key)
		}
		s.Add(source, target, id)
	}

	if file != "" {
		gf, err := config.LoadGlossaryFile(file)
		if err != nil {
			return nil, err
		}
		for _, entry := range gf.Glossaries {
			s.Add(entry.SourceLang, entry.TargetLang, entry.ID)
		}
	}
	return s, nil
}

// Add 登记一个语言对的术语表
func (s *StaticLookup) Add(sourceLang, targetLang, id string) {
	if id = strings.TrimSpace(id); id == "" {
		return
	}
	s.ids[pairKey(sourceLang, targetLang)] = id
}

// Len 已登记的语言对数量
func (s *StaticLookup) Len() int {
	return len(s.ids)
}

// GlossaryID 先精确匹配，再退回到不带地区的语言对
func (s *StaticLookup) GlossaryID(_ context.Context, sourceLang, targetLang string) (string, error) {
	if sourceLang == "" || targetLang == "" {
		return "", nil
	}
	if id, ok := s.ids[pairKey(sourceLang, targetLang)]; ok {
		return id, nil
	}
	return s.ids[baseKey(sourceLang, targetLang)], nil
}
