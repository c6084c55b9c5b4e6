package screenprobe

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"strings"

	"github.com/jsummers/gobmp"
	"github.com/rymdport/portal/screenshot"
)

// Capturer takes a full-screen screenshot through the xdg-desktop-portal
// Screenshot interface, the sandboxed-friendly path a Wayland or Flatpak
// host needs in place of a raw X11/DRM grab.
type Capturer struct{}

// Capture requests one screenshot and decodes it. The portal writes its
// result to a temporary file and hands back a file:// URI; that file is a
// BMP on every portal backend this has been exercised against, hence
// gobmp rather than the stdlib image/png decoder.
func (Capturer) Capture(ctx context.Context) (image.Image, error) {
	uri, err := screenshot.Take(ctx, screenshot.Options{Interactive: false})
	if err != nil {
		return nil, fmt.Errorf("screenprobe: portal screenshot: %w", err)
	}

	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	if !strings.HasSuffix(strings.ToLower(path), ".bmp") {
		return nil, fmt.Errorf("screenprobe: portal returned non-bmp screenshot %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("screenprobe: open captured screenshot: %w", err)
	}
	defer f.Close()

	img, err := gobmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("screenprobe: decode bmp: %w", err)
	}
	return img, nil
}
