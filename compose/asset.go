package compose

import "strings"

// AssetRef points at a background image: either an identifier known to the
// rendering backend or an external http(s) URL. At most one field is set.
type AssetRef struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// ParseAssetRef classifies a raw reference. Strings starting with http:// or
// https:// are external URLs; anything else is a backend identifier.
func ParseAssetRef(raw string) AssetRef {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return AssetRef{URL: raw}
	}
	return AssetRef{ID: raw}
}

func (a AssetRef) IsZero() bool {
	return a.ID == "" && a.URL == ""
}

func (a AssetRef) IsExternal() bool {
	return a.URL != ""
}

func (a AssetRef) String() string {
	if a.URL != "" {
		return a.URL
	}
	return a.ID
}
