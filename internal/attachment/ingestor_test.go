package attachment

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"go.uber.org/zap"

	"chat-llm/internal/domain"
)

func newTestIngestor(t *testing.T, maxSize int64) (*Ingestor, *Store) {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewIngestor(store, maxSize, zap.NewNop()), store
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestIngestJPEGProducesThumbnail(t *testing.T) {
	ing, store := newTestIngestor(t, 1<<20)

	att, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "foto.jpg",
		MimeType: "image/jpeg",
		Data:     encodeJPEG(t, 400, 300),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if att.Status != domain.AttachmentStatusReady {
		t.Fatalf("expected ready status, got %s", att.Status)
	}
	if att.Kind != domain.AttachmentKindImage {
		t.Fatalf("expected image kind, got %s", att.Kind)
	}
	if att.FilePath == "" || att.ThumbnailPath == "" {
		t.Fatalf("expected original and thumbnail locators, got %q %q", att.FilePath, att.ThumbnailPath)
	}

	raw, err := os.ReadFile(store.AbsPath(att.ThumbnailPath))
	if err != nil {
		t.Fatalf("read thumbnail: %v", err)
	}
	thumb, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	bounds := thumb.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 150 {
		t.Fatalf("expected 200x150 thumbnail, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestIngestTallImagePreservesAspect(t *testing.T) {
	ing, store := newTestIngestor(t, 1<<20)

	att, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "alto.png",
		MimeType: "image/png",
		Data:     encodePNG(t, 100, 400),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	raw, err := os.ReadFile(store.AbsPath(att.ThumbnailPath))
	if err != nil {
		t.Fatalf("read thumbnail: %v", err)
	}
	thumb, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	bounds := thumb.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 200 {
		t.Fatalf("expected 50x200 thumbnail, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestIngestPDFWithoutThumbnail(t *testing.T) {
	ing, _ := newTestIngestor(t, 1<<20)

	att, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "doc.pdf",
		MimeType: "application/pdf",
		Data:     []byte("%PDF-1.4 contenido"),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if att.Kind != domain.AttachmentKindDocument {
		t.Fatalf("expected document kind, got %s", att.Kind)
	}
	if att.FilePath == "" || att.ThumbnailPath != "" {
		t.Fatalf("expected original only, got %q %q", att.FilePath, att.ThumbnailPath)
	}
}

func TestIngestValidationOrder(t *testing.T) {
	// Tamaño primero: un archivo gigante de tipo no permitido falla por tamaño.
	ing, _ := newTestIngestor(t, 4)

	_, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "raro.zip",
		MimeType: "application/zip",
		Data:     []byte("12345"),
	})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestIngestUnsupportedDeclaredType(t *testing.T) {
	ing, _ := newTestIngestor(t, 1<<20)

	_, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "raro.zip",
		MimeType: "application/zip",
		Data:     []byte{0x50, 0x4B, 0x03, 0x04},
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestIngestPDFBytesDeclaredPNG(t *testing.T) {
	ing, _ := newTestIngestor(t, 1<<20)

	// La firma resuelve familia PDF; el tipo declarado image/png no
	// pertenece a esa familia.
	_, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "disfrazado.png",
		MimeType: "image/png",
		Data:     []byte("%PDF-1.4"),
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestIngestCorruptJPEG(t *testing.T) {
	ing, _ := newTestIngestor(t, 1<<20)

	_, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "roto.jpg",
		MimeType: "image/jpeg",
		Data:     []byte("esto no es un jpeg"),
	})
	if !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
}

func TestIngestEmptyTextPlainFails(t *testing.T) {
	ing, _ := newTestIngestor(t, 1<<20)

	_, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "vacio.txt",
		MimeType: "text/plain",
		Data:     nil,
	})
	if !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile for empty file, got %v", err)
	}
}

func TestIngestTextPlainNonEmpty(t *testing.T) {
	ing, _ := newTestIngestor(t, 1<<20)

	att, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "notas.txt",
		MimeType: "text/plain",
		Data:     []byte("hola"),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if att.Status != domain.AttachmentStatusReady {
		t.Fatalf("expected ready status, got %s", att.Status)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	ing, store := newTestIngestor(t, 1<<20)

	first, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "a.jpg", MimeType: "image/jpeg", Data: encodeJPEG(t, 300, 200),
	})
	if err != nil {
		t.Fatalf("ingest first: %v", err)
	}
	second, err := ing.Ingest(context.Background(), "chat1", Input{
		FileName: "b.txt", MimeType: "text/plain", Data: []byte("otro"),
	})
	if err != nil {
		t.Fatalf("ingest second: %v", err)
	}

	if err := ing.Release(first.ID); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := ing.Release(first.ID); err != nil {
		t.Fatalf("second release must be no-op: %v", err)
	}
	if !ing.Handle(first.ID).Released() {
		t.Fatalf("expected handle released")
	}

	if _, err := os.Stat(store.AbsPath(first.FilePath)); !os.IsNotExist(err) {
		t.Fatalf("expected original removed, stat err=%v", err)
	}
	if _, err := os.Stat(store.AbsPath(first.ThumbnailPath)); !os.IsNotExist(err) {
		t.Fatalf("expected thumbnail removed, stat err=%v", err)
	}

	// El locator del otro adjunto no se ve afectado.
	if _, err := os.Stat(store.AbsPath(second.FilePath)); err != nil {
		t.Fatalf("expected second attachment intact: %v", err)
	}

	if err := ing.Release("desconocido"); err != nil {
		t.Fatalf("release of unknown id must be no-op: %v", err)
	}
}
