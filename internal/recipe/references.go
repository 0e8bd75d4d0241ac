package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ResolveReferences normalizes raw image references into durable remote
// URLs. Empty entries are dropped; entries that fail to resolve are logged
// and dropped rather than failing the batch. Relative order of the
// successfully resolved subset is preserved.
func (e *Engine) ResolveReferences(ctx context.Context, refs []string) []string {
	resolved := make([]string, 0, len(refs))

	for _, ref := range refs {
		switch {
		case ref == "":
			continue

		case strings.HasPrefix(ref, "https://"):
			resolved = append(resolved, ref)

		case strings.HasPrefix(ref, "/"):
			// Root-relative asset: fetch from our own origin, then persist.
			url, err := e.uploadFetched(ctx, e.BaseURL+ref)
			if err != nil {
				log.Printf("⚠️ Failed to resolve local reference %s: %v", ref, err)
				continue
			}
			resolved = append(resolved, url)

		case strings.HasPrefix(ref, "data:"):
			data, contentType, err := decodeDataURL(ref)
			if err != nil {
				log.Printf("⚠️ Failed to decode data reference: %v", err)
				continue
			}
			url, err := e.Uploader.Upload(ctx, referenceFilename(contentType), data, contentType)
			if err != nil {
				log.Printf("⚠️ Failed to upload data reference: %v", err)
				continue
			}
			resolved = append(resolved, url)

		default:
			// Transient blob references and anything else fetchable.
			url, err := e.uploadFetched(ctx, ref)
			if err != nil {
				log.Printf("⚠️ Failed to resolve reference %s: %v", ref, err)
				continue
			}
			resolved = append(resolved, url)
		}
	}

	return resolved
}

// uploadFetched downloads src and re-uploads the bytes to durable storage.
func (e *Engine) uploadFetched(ctx context.Context, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return e.Uploader.Upload(ctx, referenceFilename(contentType), data, contentType)
}

// decodeDataURL splits a data: URL into its payload bytes and media type.
func decodeDataURL(dataURL string) ([]byte, string, error) {
	rest := strings.TrimPrefix(dataURL, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data URL")
	}

	meta, payload := rest[:comma], rest[comma+1:]
	contentType := "image/jpeg"
	isBase64 := false

	for i, part := range strings.Split(meta, ";") {
		if part == "base64" {
			isBase64 = true
		} else if i == 0 && part != "" {
			contentType = part
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
		}
		return data, contentType, nil
	}

	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, "", err
	}
	return []byte(decoded), contentType, nil
}

// referenceFilename names an uploaded reference after its media type.
func referenceFilename(contentType string) string {
	ext := ".jpg"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("reference-%d%s", time.Now().UnixMilli(), ext)
}
