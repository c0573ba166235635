package discover

import (
	"strings"

	"github.com/mirahq/ingest-manager/internal/models"
)

var blogMarkers = []string{"/blog", "/news", "/article", "/post", "/insights", "/stories"}
var productMarkers = []string{"/product", "/shop", "/store", "/item", "/catalog", "/pricing"}

// Categorize maps a page URL to a coarse category from its path. Anything
// that does not look like a blog or product page counts as info.
func Categorize(rawURL string) models.ItemCategory {
	path := strings.ToLower(rawURL)
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
	}
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[i:]
	} else {
		path = "/"
	}

	for _, m := range blogMarkers {
		if strings.Contains(path, m) {
			return models.CategoryBlog
		}
	}
	for _, m := range productMarkers {
		if strings.Contains(path, m) {
			return models.CategoryProduct
		}
	}
	return models.CategoryInfo
}
