package app

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NamingPolicy правило именования файлов обрезок
type NamingPolicy string

const (
	// NamingBase имя до первой точки; файлы a.jpg и a.png перезапишут друг друга.
	NamingBase NamingPolicy = "base"
	// NamingFull полное имя файла, точки заменены на подчёркивания.
	NamingFull NamingPolicy = "full"
)

// ParseNamingPolicy разбирает значение из конфигурации.
func ParseNamingPolicy(s string) (NamingPolicy, error) {
	switch p := NamingPolicy(s); p {
	case NamingBase, NamingFull:
		return p, nil
	case "":
		return NamingBase, nil
	default:
		return "", fmt.Errorf("unknown naming policy %q", s)
	}
}

// DisplayName возвращает имя файла до первой точки: img01.jpg -> img01.
func DisplayName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// CropStem возвращает имя файла обрезки без расширения.
func (p NamingPolicy) CropStem(path string) string {
	if p == NamingFull {
		return strings.ReplaceAll(filepath.Base(path), ".", "_")
	}
	return DisplayName(path)
}
