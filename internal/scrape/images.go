package scrape

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/gocolly/colly"
)

func IsImage(r *colly.Response) bool {
	return strings.Index(r.Headers.Get("Content-Type"), "image") > -1
}

// FileName is the name the remote server gave the image, made safe for
// use on any filesystem.
func FileName(r *colly.Response) string {
	name := path.Base(r.Request.URL.Path)
	if name == "." || name == "/" || name == "" {
		name = r.FileName()
	}
	return sanitize(name)
}

// ResultLink extracts the full size image URL from a Bing result anchor.
// Bing keeps it in the "murl" key of the JSON "m" attribute.
func ResultLink(e *colly.HTMLElement) (string, bool) {
	var meta struct {
		MediaURL string `json:"murl"`
	}
	if err := json.Unmarshal([]byte(e.Attr("m")), &meta); err != nil {
		return "", false
	}
	link := strings.TrimSpace(meta.MediaURL)
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return "", false
	}
	return link, true
}

func sanitize(filename string) string {
	invalidChars := "/\\:*?<>|\""
	sanitized := filename
	for _, char := range invalidChars {
		sanitized = strings.ReplaceAll(sanitized, string(char), "_")
	}
	return sanitized
}
