package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; rv:109.0) Gecko/20100101 Firefox/115.0"

// Info describes a completed fetch: the name and type the server (or
// the URL) reported, and the number of bytes written.
type Info struct {
	FileName    string
	ContentType string
	Size        int64
}

// ProgressFunc receives byte progress while a fetch runs. total is -1
// when the server sent no Content-Length.
type ProgressFunc func(done, total int64)

// Fetch downloads url into w, reporting byte progress through
// onProgress (may be nil). Filename is derived from Content-Disposition
// or the URL path; content type from the response header. The request
// is cancelled when ctx is.
func Fetch(ctx context.Context, url string, w io.Writer, onProgress ProgressFunc) (Info, error) {
	client := &http.Client{Timeout: 5 * time.Minute}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Info{}, fmt.Errorf("download: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	info := Info{
		ContentType: contentType(resp.Header.Get("Content-Type")),
	}
	name := filenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = filenameFromURL(url)
	}
	if name == "" {
		name = "download"
	}
	info.FileName = SanitizeFilename(name)

	total := resp.ContentLength
	var done int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return info, fmt.Errorf("download: %w", werr)
			}
			done += int64(n)
			if onProgress != nil {
				onProgress(done, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return info, fmt.Errorf("download: %w", readErr)
		}
	}
	info.Size = done
	return info, nil
}

func contentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func filenameFromContentDisposition(cd string) string {
	cd = strings.TrimSpace(cd)
	// filename="..."; or filename*=UTF-8''...
	if i := strings.Index(cd, "filename*=UTF-8''"); i >= 0 {
		s := cd[i+len("filename*=UTF-8''"):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		return strings.Trim(s, "\"")
	}
	if i := strings.Index(cd, "filename="); i >= 0 {
		s := cd[i+len("filename="):]
		s = strings.Trim(s, "\" ")
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		return s
	}
	return ""
}

func filenameFromURL(url string) string {
	path := url
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}

var safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// SanitizeFilename replaces path-unsafe characters with underscores and
// bounds the length. An empty input yields "download".
func SanitizeFilename(name string) string {
	if name == "" {
		return "download"
	}
	name = safeNameRe.ReplaceAllString(name, "_")
	if len(name) > 96 {
		name = name[:96]
	}
	return name
}
