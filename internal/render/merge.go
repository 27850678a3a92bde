package render

import "blog_generator/internal/domain"

// AssignImages puts images[0] in the featured slot and images[i+1] in
// section i. Sections without a matching image lose any image the model
// produced, as do sections whose slot has an empty URL. With no images the
// content is left as generated.
func AssignImages(content *domain.BlogContent, images []domain.Image) {
	if content == nil || len(images) == 0 {
		return
	}

	if images[0].URL != "" {
		content.FeaturedImage.URL = images[0].URL
		content.FeaturedImage.AltText = images[0].AltText
	}

	for i := range content.Sections {
		if i+1 < len(images) && images[i+1].URL != "" {
			img := images[i+1]
			content.Sections[i].Image = &domain.ImageRef{
				URL:     img.URL,
				AltText: img.AltText,
				Caption: img.AltText,
			}
		} else {
			content.Sections[i].Image = nil
		}
	}
}
