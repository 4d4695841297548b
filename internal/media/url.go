package media

// imageBase is the CDN prefix for provider image paths.
const imageBase = "https://image.tmdb.org/t/p/"

// PosterURL returns the w500 poster URL for p, or "" when p is empty.
func PosterURL(p string) string { return imageURL("w500", p) }

// BackdropURL returns the full-size backdrop URL for p.
func BackdropURL(p string) string { return imageURL("original", p) }

// LogoURL returns the full-size logo URL for p.
func LogoURL(p string) string { return imageURL("original", p) }

func imageURL(size, p string) string {
	if p == "" {
		return ""
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return imageBase + size + p
}
