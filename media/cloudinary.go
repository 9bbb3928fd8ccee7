package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	models "github.com/phillip/event-easy-go/models"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const (
	uploadTimeout  = 60 * time.Second
	destroyTimeout = 30 * time.Second
)

// Cloudinary stores event images and videos under <folder>/images and <folder>/videos.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %v", err)
	}
	return &Cloudinary{cld: cld, folder: folder, now: time.Now}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, kind Kind, filename string, file io.Reader) (models.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       path.Join(c.folder, string(kind)+"s"),
		PublicID:     fmt.Sprintf("%d-%s", c.now().UnixMilli(), base),
		ResourceType: string(kind),
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("upload error: %v", err)
	}
	if resp.Error.Message != "" {
		return models.Media{}, fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return models.Media{PublicID: resp.PublicID, URL: resp.SecureURL}, nil
}

// Destroy removes an asset. Records that only kept the delivery URL fall back to the
// public id encoded in it.
func (c *Cloudinary) Destroy(ctx context.Context, kind Kind, m models.Media) error {
	publicID := m.PublicID
	if publicID == "" {
		var err error
		if publicID, err = PublicIDFromURL(m.URL); err != nil {
			return fmt.Errorf("could not extract public ID: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, destroyTimeout)
	defer cancel()

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: string(kind),
	})
	if err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("delete error: %s", resp.Error.Message)
	}
	return nil
}

// PublicIDFromURL extracts the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1234567890/Event-Easy/images/abc.jpg
func PublicIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	i := 0
	for i < len(parts) && parts[i] != "upload" {
		i++
	}
	rest := parts[min(i+1, len(parts)):]
	if len(rest) > 0 && isVersion(rest[0]) {
		rest = rest[1:]
	}
	if i == len(parts) || len(rest) == 0 {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}

	id := path.Join(rest...)
	return strings.TrimSuffix(id, path.Ext(id)), nil
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
