// Package docstore keeps verification documents in Cloudinary.
package docstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// urlFunc renders the delivery URL of a stored asset.
type urlFunc func(publicID string, signed bool) (string, error)

type Cloudinary struct {
	up     uploadAPI
	url    urlFunc
	folder string
}

func NewCloudinary(cloudinaryURL, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{
		up:     &cld.Upload,
		url:    assetURL(cld),
		folder: strings.Trim(folder, "/"),
	}, nil
}

func assetURL(cld *cloudinary.Cloudinary) urlFunc {
	return func(publicID string, signed bool) (string, error) {
		img, err := cld.Image(publicID)
		if err != nil {
			return "", err
		}
		img.Config.URL.Secure = true
		img.Config.URL.SignURL = signed
		return img.String()
	}
}

// Upload stores content under folder/p and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, p string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("cloudinary upload %s: empty document", p)
	}
	res, err := c.up.Upload(ctx, bytes.NewReader(content), uploader.UploadParams{
		PublicID:     c.publicID(p),
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", p, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", p, res.Error.Message)
	}
	return res.SecureURL, nil
}

func (c *Cloudinary) PublicURL(p string) (string, error) {
	return c.url(c.publicID(p), false)
}

// SignedURL returns a signed delivery URL. Cloudinary signatures do not
// expire on their own, so the ttl is not enforced here.
func (c *Cloudinary) SignedURL(p string, _ time.Duration) (string, error) {
	return c.url(c.publicID(p), true)
}

func (c *Cloudinary) publicID(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	if c.folder == "" {
		return strings.Trim(p, "/")
	}
	return c.folder + "/" + strings.Trim(p, "/")
}
