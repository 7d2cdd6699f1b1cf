// Package images turns stored product image paths into URLs. Files live in an
// external image store; this service only reads the paths recorded for them.
package images

import "strings"

// PrimaryPathSQL selects the primary image of product alias p, falling back to
// the oldest image when none is flagged.
const PrimaryPathSQL = `(SELECT pi.image_path FROM product_images pi
	WHERE pi.product_id = p.id
	ORDER BY pi.is_primary DESC, pi.id ASC
	LIMIT 1)`

type Resolver struct {
	baseURL string
}

func NewResolver(baseURL string) Resolver {
	return Resolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns nil for a missing path. Paths that are already absolute URLs,
// such as hosted image store links, are returned unchanged.
func (r Resolver) URL(path *string) *string {
	if path == nil || strings.TrimSpace(*path) == "" {
		return nil
	}
	p := strings.TrimSpace(*path)
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || r.baseURL == "" {
		return &p
	}
	u := r.baseURL + "/" + strings.TrimLeft(p, "/")
	return &u
}
