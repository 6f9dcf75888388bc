package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary uploads documents to a Cloudinary media library
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	Prefix string
}

// NewCloudinary connects with account credentials
func NewCloudinary(cloudName, apiKey, apiSecret, prefix string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary: missing credentials")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, Prefix: prefix}, nil
}

func (c *Cloudinary) Save(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	publicID := strings.TrimSuffix(SafeName(name), filepath.Ext(name))
	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   strings.Trim(c.Prefix+"/"+SafeName(folder), "/"),
		PublicID: publicID,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}
