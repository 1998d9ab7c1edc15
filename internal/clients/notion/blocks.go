package notion

// Block is the subset of the Notion block object the exporter emits.
// Exactly one of the type payloads is set, matching Type.
type Block struct {
	Object           string     `json:"object,omitempty"`
	ID               string     `json:"id,omitempty"`
	Type             string     `json:"type"`
	Heading1         *RichBody  `json:"heading_1,omitempty"`
	Heading2         *RichBody  `json:"heading_2,omitempty"`
	Heading3         *RichBody  `json:"heading_3,omitempty"`
	Paragraph        *RichBody  `json:"paragraph,omitempty"`
	BulletedListItem *RichBody  `json:"bulleted_list_item,omitempty"`
	NumberedListItem *RichBody  `json:"numbered_list_item,omitempty"`
	Callout          *RichBody  `json:"callout,omitempty"`
	Divider          *struct{}  `json:"divider,omitempty"`
	Bookmark         *Bookmark  `json:"bookmark,omitempty"`
}

type RichBody struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Annotations struct {
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Code   bool   `json:"code,omitempty"`
	Color  string `json:"color,omitempty"`
}

type Bookmark struct {
	URL string `json:"url"`
}

type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// Notion caps text content at 2000 characters per rich text object.
const maxTextLength = 2000

func text(content string) []RichText {
	if len(content) > maxTextLength {
		content = content[:maxTextLength]
	}
	return []RichText{{Type: "text", Text: &TextContent{Content: content}}}
}

func Heading1(content string) Block {
	return Block{Object: "block", Type: "heading_1", Heading1: &RichBody{RichText: text(content)}}
}

func Heading2(content string) Block {
	return Block{Object: "block", Type: "heading_2", Heading2: &RichBody{RichText: text(content)}}
}

func Heading3(content string) Block {
	return Block{Object: "block", Type: "heading_3", Heading3: &RichBody{RichText: text(content)}}
}

func Paragraph(content string) Block {
	return Block{Object: "block", Type: "paragraph", Paragraph: &RichBody{RichText: text(content)}}
}

func BoldParagraph(content string) Block {
	rt := text(content)
	rt[0].Annotations = &Annotations{Bold: true}
	return Block{Object: "block", Type: "paragraph", Paragraph: &RichBody{RichText: rt}}
}

func BulletedItem(content string) Block {
	return Block{Object: "block", Type: "bulleted_list_item", BulletedListItem: &RichBody{RichText: text(content)}}
}

func NumberedItem(content string) Block {
	return Block{Object: "block", Type: "numbered_list_item", NumberedListItem: &RichBody{RichText: text(content)}}
}

func Divider() Block {
	return Block{Object: "block", Type: "divider", Divider: &struct{}{}}
}

func BookmarkBlock(url string) Block {
	return Block{Object: "block", Type: "bookmark", Bookmark: &Bookmark{URL: url}}
}

func CalloutBlock(content, emoji string) Block {
	return Block{
		Object: "block",
		Type:   "callout",
		Callout: &RichBody{
			RichText: text(content),
			Icon:     &Icon{Type: "emoji", Emoji: emoji},
		},
	}
}
