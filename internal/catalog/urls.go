package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// CategoriesURL is the endpoint listing meta categories
func CategoriesURL(baseURL string) string {
	return trimBase(baseURL) + "/api.php?action=get_meta_categories"
}

// SearchURL builds a search page URL. Empty query and tags are left out
// entirely rather than sent as empty parameters.
func SearchURL(baseURL, query, tags string, page, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/api.php?page=%d&limit=%d", trimBase(baseURL), page, limit)
	if query != "" {
		b.WriteString("&search=")
		b.WriteString(escape(query))
	}
	if tags != "" {
		b.WriteString("&tags=")
		b.WriteString(escape(tags))
	}
	return b.String()
}

// UploadURL resolves a catalog-relative path (preview or artifact) against
// the uploads directory.
func UploadURL(baseURL, relativePath string) string {
	return trimBase(baseURL) + "/uploads/" + strings.TrimLeft(relativePath, "/")
}

func trimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

// escape percent-encodes s for a query value; spaces become %20, not '+'
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
