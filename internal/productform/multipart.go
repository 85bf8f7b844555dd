package productform

import (
	"fmt"

	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// ImagesPart is the multipart field name of new image files.
const ImagesPart = "images"

// EncodeMultipart writes the payload as a multipart/form-data body and
// returns it with its content type.
func EncodeMultipart(p *Payload) ([]byte, string, error) {
	fields, err := p.Fields()
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode product fields: %w", err)
	}

	form := marketplace.NewForm()
	for _, f := range fields {
		form.Set(f.Name, f.Value)
	}
	for _, img := range p.NewImages {
		form.File(ImagesPart, &marketplace.File{Filename: img.Filename, ContentType: img.ContentType, Data: img.Data})
	}
	return form.Encode()
}
