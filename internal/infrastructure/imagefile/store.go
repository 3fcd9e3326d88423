package imagefile

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"bird-crop/internal/domain/port"
)

// Format формат файлов обрезок; оба варианта без потерь.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ErrDecode оборачивает любую ошибку чтения или декодирования исходника.
var ErrDecode = errors.New("failed to decode image")

// ParseFormat разбирает значение из конфигурации.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatWebP:
		return f, nil
	case "":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported crop format %q", s)
	}
}

// Store читает исходные изображения и пишет обрезки в CropDir.
type Store struct {
	CropDir string
	Format  Format
}

// NewStore создаёт хранилище с каталогом обрезок cropDir.
func NewStore(cropDir string, format Format) *Store {
	if format == "" {
		format = FormatPNG
	}
	return &Store{CropDir: cropDir, Format: format}
}

// List возвращает обычные файлы каталога без рекурсии. Скрытые файлы
// пропускаются, символические ссылки разыменовываются.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if e.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}

// Load декодирует изображение с учётом EXIF-ориентации. Альфа-канал
// отбрасывается, цвет пикселей остаётся как в файле.
func (s *Store) Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}
	return opaque(img), nil
}

func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// EnsureDir создаёт каталог обрезок; повторный вызов не ошибка.
func (s *Store) EnsureDir() error {
	return os.MkdirAll(s.CropDir, 0o755)
}

// SaveCrop пишет обрезку в CropDir/<stem>.<format>, перезаписывая файл.
func (s *Store) SaveCrop(stem string, img image.Image) (string, error) {
	path := filepath.Join(s.CropDir, stem+"."+string(s.Format))

	switch s.Format {
	case FormatWebP:
		if err := saveWebP(path, img); err != nil {
			return "", fmt.Errorf("save %s: %w", path, err)
		}
	default:
		if err := imaging.Save(img, path); err != nil {
			return "", fmt.Errorf("save %s: %w", path, err)
		}
	}

	return path, nil
}

func saveWebP(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return webp.Encode(f, img, &webp.Options{Lossless: true})
}

var _ port.ImageStore = (*Store)(nil)
