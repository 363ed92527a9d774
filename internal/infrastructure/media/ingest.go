package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"mime"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the webp decoder

	"github.com/sngm3741/storefinder/internal/metrics"
	"github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

// DefaultWidth is the width every stored photo is resized to.
const DefaultWidth = 800

// MaxPixels caps both the decoded source and the resized target.
const MaxPixels = 40_000_000

const jpegQuality = 90

var _ application.PhotoIngestor = (*Ingestor)(nil)

// Ingestor turns an uploaded image into a resized file with a server chosen name.
type Ingestor struct {
	files   FileStore
	width   int
	logger  *zap.Logger
	newName func() string
	encode  func(w io.Writer, img image.Image, subtype string) error
}

// NewIngestor creates an ingestor writing into files. width <= 0 means DefaultWidth.
func NewIngestor(files FileStore, width int, logger *zap.Logger) *Ingestor {
	if width <= 0 {
		width = DefaultWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		files:   files,
		width:   width,
		logger:  logger,
		newName: uuid.NewString,
		encode:  encode,
	}
}

// Ingest validates, resizes and stores upload, returning the stored filename.
// A nil upload means "no photo" and yields "" without error.
func (i *Ingestor) Ingest(ctx context.Context, upload *application.PhotoUpload) (string, error) {
	if upload == nil || upload.Data == nil {
		metrics.PhotoIngestTotal.WithLabelValues("skipped").Inc()
		return "", nil
	}

	subtype, ok := imageSubtype(upload.MimeType)
	if !ok {
		metrics.PhotoIngestTotal.WithLabelValues("unsupported").Inc()
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, upload.MimeType)
	}

	data, err := io.ReadAll(upload.Data)
	if err != nil {
		metrics.PhotoIngestTotal.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("%w: read upload: %v", domain.ErrDecode, err)
	}

	// ヘッダだけ先に読み、巨大な画像はデコード前に弾く
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		metrics.PhotoIngestTotal.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if err := i.checkSize(cfg.Width, cfg.Height); err != nil {
		metrics.PhotoIngestTotal.WithLabelValues("too_large").Inc()
		return "", err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.PhotoIngestTotal.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	resized := i.resize(src)

	var buf bytes.Buffer
	if err := i.encode(&buf, resized, subtype); err != nil {
		metrics.PhotoIngestTotal.WithLabelValues("encode_error").Inc()
		return "", fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, subtype, err)
	}

	name := i.newName() + "." + subtype
	if err := i.files.Save(ctx, name, buf.Bytes()); err != nil {
		metrics.PhotoIngestTotal.WithLabelValues("persist_error").Inc()
		return "", fmt.Errorf("%w: save photo: %v", domain.ErrPersistence, err)
	}

	metrics.PhotoIngestTotal.WithLabelValues("stored").Inc()
	i.logger.Debug("photo stored",
		zap.String("file", name),
		zap.String("format", format),
		zap.Int("width", resized.Bounds().Dx()),
		zap.Int("height", resized.Bounds().Dy()),
	)
	return name, nil
}

// Discard removes a stored photo.
func (i *Ingestor) Discard(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}
	if err := i.files.Delete(ctx, filename); err != nil {
		i.logger.Warn("photo discard failed", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("%w: discard photo: %v", domain.ErrPersistence, err)
	}
	return nil
}

// checkSize rejects sources or resize targets above MaxPixels.
func (i *Ingestor) checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}
	if int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%w: image %dx%d exceeds %d pixels", domain.ErrDecode, w, h, MaxPixels)
	}
	target := i.targetHeight(w, h)
	if int64(i.width)*int64(target) > MaxPixels {
		return fmt.Errorf("%w: resized image %dx%d exceeds %d pixels", domain.ErrDecode, i.width, target, MaxPixels)
	}
	return nil
}

func (i *Ingestor) targetHeight(w, h int) int {
	height := int(math.Round(float64(h) * float64(i.width) / float64(w)))
	if height < 1 {
		height = 1
	}
	return height
}

func (i *Ingestor) resize(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	height := i.targetHeight(w, h)
	dst := image.NewRGBA(image.Rect(0, 0, i.width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func encode(w io.Writer, img image.Image, subtype string) error {
	switch subtype {
	case "png":
		return png.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, nil)
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	}
}

// imageSubtype returns the sanitised subtype of an image/* mime type.
func imageSubtype(mimeType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", false
	}
	kind, subtype, ok := strings.Cut(strings.ToLower(mediaType), "/")
	if !ok || kind != "image" {
		return "", false
	}
	subtype = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '+', r == '-':
			return r
		}
		return -1
	}, subtype)
	subtype = strings.Trim(subtype, ".")
	if subtype == "" {
		return "", false
	}
	return subtype, true
}
