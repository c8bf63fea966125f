package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// GlossaryEntry 一条语言对到术语表 ID 的映射
type GlossaryEntry struct {
	SourceLang string `toml:"source_lang"`
	TargetLang string `toml:"target_lang"`
	ID         string `toml:"id"`
}

// GlossaryFile 术语表映射文件
type GlossaryFile struct {
	Glossaries []GlossaryEntry `toml:"glossary"`
}

// LoadGlossaryFile 从 TOML 文件加载术语表映射
func LoadGlossaryFile(path string) (*GlossaryFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("glossary file not found: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary file: %w", err)
	}

	file := &GlossaryFile{}
	if err := toml.Unmarshal(content, file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal glossary file: %w", err)
	}

	for i, entry := range file.Glossaries {
		if entry.SourceLang == "" || entry.TargetLang == "" || entry.ID == "" {
			return nil, fmt.Errorf("glossary entry %d is missing source_lang, target_lang or id", i)
		}
	}
	return file, nil
}
