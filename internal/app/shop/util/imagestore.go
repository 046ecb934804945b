package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore сохраняет изображения товаров и возвращает публичный URL.
// Хранилище для бизнес-логики непрозрачно - важен только итоговый URL
type ImageStore interface {
	Save(filename string, content io.Reader) (string, error)
	Delete(url string) error
}

// localImageStore хранит файлы на локальном диске и раздает их по baseURL
type localImageStore struct {
	dir     string
	baseURL string
}

// NewLocalImageStore создает файловое хранилище изображений
func NewLocalImageStore(dir, baseURL string) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images dir: %w", err)
	}

	return &localImageStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save записывает файл под уникальным именем и возвращает его URL
func (s *localImageStore) Save(filename string, content io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Delete удаляет файл по его URL. Отсутствующий файл не считается ошибкой
func (s *localImageStore) Delete(url string) error {
	if url == "" {
		return nil
	}

	name := filepath.Base(url)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}
