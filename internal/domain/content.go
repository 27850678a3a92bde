package domain

// BlogContent is the document the completion model is asked to produce.
type BlogContent struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Keywords      []string      `json:"keywords"`
	Author        string        `json:"author"`
	Date          string        `json:"date"`
	ReadingTime   string        `json:"readingTime"`
	FeaturedImage ImageRef      `json:"featuredImage"`
	Sections      []Section     `json:"sections"`
	Tags          []string      `json:"tags"`
	RelatedPosts  []RelatedPost `json:"relatedPosts"`
}

type Section struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     *ImageRef `json:"image,omitempty"`
	ListItems []string  `json:"listItems,omitempty"`
}

// ImageRef is an image slot inside BlogContent.
type ImageRef struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Caption string `json:"caption"`
}

type RelatedPost struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Image is a search result from the image source, consumed in order.
type Image struct {
	URL     string
	AltText string
}
