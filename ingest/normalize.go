package ingest

import "strings"

// defaultAgentMap resolves romaji or shorthand spellings to canonical
// agent display names. Extended at runtime from the config file.
var defaultAgentMap = map[string]string{
	"HAMASAKI": "濱﨑彩那",
	"YUMOTO":   "湯本",
	"濱崎":       "濱﨑彩那",
}

// NormalizeAgent maps a raw agent field to its canonical display name.
// Unmapped names pass through with the 崎/﨑 kanji standardized; blank
// input resolves to the Unknown sentinel.
func (l *Loader) NormalizeAgent(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown"
	}
	if mapped, ok := l.agentMap[strings.ToUpper(name)]; ok {
		return mapped
	}
	return strings.ReplaceAll(name, "崎", "﨑")
}
