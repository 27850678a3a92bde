package pexels

// SearchResponse represents the Pexels search API response structure.
type SearchResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	NextPage     string  `json:"next_page"`
	Photos       []Photo `json:"photos"`
}

type Photo struct {
	ID           int64    `json:"id"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	URL          string   `json:"url"`
	Photographer string   `json:"photographer"`
	Alt          string   `json:"alt"`
	Src          PhotoSrc `json:"src"`
}

type PhotoSrc struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Portrait  string `json:"portrait"`
	Landscape string `json:"landscape"`
	Tiny      string `json:"tiny"`
}

// best returns the original image, falling back to the largest rendition
// that is present.
func (s PhotoSrc) best() string {
	for _, u := range []string{s.Original, s.Large2x, s.Large, s.Landscape, s.Medium, s.Portrait, s.Small, s.Tiny} {
		if u != "" {
			return u
		}
	}
	return ""
}
