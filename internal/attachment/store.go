package attachment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store persiste los archivos bajo baseDir con nombres por hash de contenido,
// en una jerarquía año/mes/día/chat.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save escribe el contenido y devuelve la ruta relativa dentro del store.
func (s *Store) Save(chatID, fileName string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	ext := strings.ToLower(filepath.Ext(fileName))
	name := hex.EncodeToString(sum[:]) + ext

	now := time.Now().UTC()
	relDir := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"), chatID)
	if err := os.MkdirAll(filepath.Join(s.baseDir, relDir), 0o755); err != nil {
		return "", fmt.Errorf("create chat dir: %w", err)
	}

	relPath := filepath.Join(relDir, name)
	if err := os.WriteFile(filepath.Join(s.baseDir, relPath), data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return relPath, nil
}

// SaveThumbnail escribe la miniatura junto al original con sufijo _thumb.jpg.
func (s *Store) SaveThumbnail(originalRelPath string, jpegData []byte) (string, error) {
	ext := filepath.Ext(originalRelPath)
	relPath := strings.TrimSuffix(originalRelPath, ext) + "_thumb.jpg"
	if err := os.WriteFile(filepath.Join(s.baseDir, relPath), jpegData, 0o644); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	return relPath, nil
}

// Remove borra un archivo del store; un archivo inexistente no es error.
func (s *Store) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.baseDir, relPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// AbsPath resuelve la ruta absoluta de un archivo guardado.
func (s *Store) AbsPath(relPath string) string {
	return filepath.Join(s.baseDir, relPath)
}

// Handle es el locator del recurso que respalda a un adjunto. Release es
// explícito e idempotente: liberar dos veces no falla ni toca otros recursos.
type Handle struct {
	store *Store
	paths []string

	mu       sync.Mutex
	released bool
}

func newHandle(store *Store, paths ...string) *Handle {
	return &Handle{store: store, paths: paths}
}

// Release reclama los archivos del adjunto una sola vez.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true

	for _, p := range h.paths {
		if err := h.store.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

// Released informa si el locator ya fue liberado.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
