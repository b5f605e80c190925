package util

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrImageTooLarge          = errors.New("image exceeds maximum size")
)

// MaxImageSize - предел размера загружаемого изображения
const MaxImageSize = 10 << 20 // 10 MiB

// publicPrefix - префикс, под которым каталог загрузок раздаётся по HTTP
const publicPrefix = "/uploads/"

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// DiskImageStorage хранит загруженные изображения на диске, раскладывая
// их по каталогам пользователей. Наружу отдаются публичные пути вида
// /uploads/classifications/user_<id>/<файл>.
type DiskImageStorage struct {
	baseDir string
}

func NewDiskImageStorage(baseDir string) *DiskImageStorage {
	return &DiskImageStorage{baseDir: baseDir}
}

// Save проверяет формат и размер изображения и сохраняет его под новым
// именем. Возвращает публичный путь для записи в классификацию.
func (s *DiskImageStorage) Save(userID uuid.UUID, filename string, src io.Reader, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return "", ErrUnsupportedImageFormat
	}

	if size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), hex.EncodeToString(suffix), ext)
	relative := filepath.Join("classifications", fmt.Sprintf("user_%s", userID), name)
	diskPath := filepath.Join(s.baseDir, relative)

	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(diskPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	// Размер из заголовка мог соврать, поэтому пишем не больше лимита
	written, err := io.Copy(dst, io.LimitReader(src, MaxImageSize+1))
	if err != nil {
		os.Remove(diskPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > MaxImageSize {
		os.Remove(diskPath)
		return "", ErrImageTooLarge
	}

	return publicPrefix + filepath.ToSlash(relative), nil
}

// Delete удаляет изображение по его публичному пути. Ошибки не
// прерывают вызывающую операцию: файл мог быть удалён раньше.
func (s *DiskImageStorage) Delete(imagePath string) bool {
	relative := strings.TrimPrefix(imagePath, publicPrefix)
	if relative == imagePath || relative == "" {
		return false
	}

	diskPath := filepath.Join(s.baseDir, filepath.FromSlash(relative))

	// Путь пришёл из базы, но от выхода за каталог загрузок всё равно
	// защищаемся
	cleanBase := filepath.Clean(s.baseDir) + string(filepath.Separator)
	if !strings.HasPrefix(filepath.Clean(diskPath), cleanBase) {
		return false
	}

	return os.Remove(diskPath) == nil
}

// DiskPath возвращает путь файла на диске по его публичному пути
func (s *DiskImageStorage) DiskPath(imagePath string) (string, bool) {
	relative := strings.TrimPrefix(imagePath, publicPrefix)
	if relative == imagePath || relative == "" {
		return "", false
	}

	return filepath.Join(s.baseDir, filepath.FromSlash(relative)), true
}
