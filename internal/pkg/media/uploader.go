package media

import (
	"Nocturne/internal/api/config"
	"Nocturne/internal/model"
	"Nocturne/internal/pkg/consts"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MaxImageEdge 图片附件的最大边长，超出时等比缩小后再上传
const MaxImageEdge = 1920

// Uploader 附件上传器：图片先压缩再写入对象存储，
// 返回可直接放进消息附件列表的公开 URL。
type Uploader struct {
	client *minio.Client
	cfg    config.MinIOConfig
}

func NewUploader(cfg config.MinIOConfig) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "初始化对象存储客户端失败")
	}
	return &Uploader{client: client, cfg: cfg}, nil
}

// UploadAttachment 上传一个附件。图片走压缩管线，其余类型原样上传
func (s *Uploader) UploadAttachment(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (*model.Attachment, error) {
	if strings.HasPrefix(contentType, consts.MimePrefixImage) {
		return s.uploadImage(ctx, r)
	}

	objectName := "im/" + uuid.NewString() + path.Ext(filename)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "附件上传失败")
	}

	return &model.Attachment{
		URL:      s.PublicURL(objectName),
		MimeType: contentType,
	}, nil
}

func (s *Uploader) uploadImage(ctx context.Context, r io.Reader) (*model.Attachment, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "解码图片失败")
	}

	img = FitWithin(img, MaxImageEdge)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, errors.Wrap(err, "编码图片失败")
	}

	objectName := "im/" + uuid.NewString() + ".jpg"
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, objectName, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return nil, errors.Wrap(err, "图片上传失败")
	}

	bounds := img.Bounds()
	return &model.Attachment{
		URL:      s.PublicURL(objectName),
		MimeType: "image/jpeg",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}

// FitWithin 任一边超过 maxEdge 时等比缩小，否则原样返回
func FitWithin(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxEdge && bounds.Dy() <= maxEdge {
		return img
	}
	return imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
}

// PublicURL 拼出对象的公共访问 URL
func (s *Uploader) PublicURL(objectName string) string {
	endpoint := s.cfg.Endpoint
	if s.cfg.UsePublicLink && s.cfg.ExternalEndpoint != "" {
		endpoint = s.cfg.ExternalEndpoint
	}

	protocol := "http"
	if s.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, s.cfg.Bucket, objectName)
}
