package port

import "image"

// ImageStore интерфейс чтения исходных изображений и записи обрезок
type ImageStore interface {
	// List возвращает пути к обычным файлам каталога, отсортированные по имени
	List(dir string) ([]string, error)

	// Load декодирует изображение с диска
	Load(path string) (image.Image, error)

	// EnsureDir создаёт каталог для обрезок, если его ещё нет
	EnsureDir() error

	// SaveCrop сохраняет обрезку под именем stem и возвращает путь к файлу
	SaveCrop(stem string, img image.Image) (string, error)
}
