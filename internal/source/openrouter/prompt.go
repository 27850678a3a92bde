package openrouter

import "fmt"

const systemPrompt = "You must respond with ONLY raw JSON output. Do not include any Markdown code blocks or additional text."

const contentPromptFormat = `Generate blog content about %q in RAW JSON format (no Markdown, just pure JSON) with this exact structure:
{
"title": "10 Essential [Topic] you should know about",
"description": "[150-160 character meta description]",
"keywords": ["keyword1", "keyword2", "keyword3"],
"author": "Author Name",
"date": "YYYY-MM-DD",
"readingTime": "X min read",
"featuredImage": {
  "url": "https://picsum.photos/600/300",
  "altText": "Descriptive alt text",
  "caption": "Image caption"
},
"sections": [
  {
    "title": "Section 1",
    "content": "Paragraph text...",
    "image": {
      "url": "https://picsum.photos/600/300",
      "altText": "Descriptive alt text",
      "caption": "Image caption"
    },
    "listItems": ["Item 1", "Item 2", "Item 3"]
  }
],
"tags": ["tag1", "tag2", "tag3"],
"relatedPosts": [
  {"title": "Related post title", "url": "/blogs/related-post"}
]
}

IMPORTANT:
1. Output must be pure JSON only
2. Do not include any Markdown code blocks
3. Do not include any explanatory text
4. Maintain the exact structure shown above`

func contentPrompt(topic string) string {
	return fmt.Sprintf(contentPromptFormat, topic)
}
