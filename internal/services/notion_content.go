package services

import (
	"encoding/json"
	"fmt"

	notionclient "github.com/vidgist/vidgist-backend/internal/clients/notion"
	types "github.com/vidgist/vidgist-backend/internal/domain"
)

// BuildResultBlocks renders an analysis result as Notion blocks. The
// same rendering is used for fresh exports, re-syncs and session page
// appends.
func BuildResultBlocks(result *types.AnalysisResult) ([]notionclient.Block, error) {
	var payload types.ResultPayload
	if len(result.ResultJSON) > 0 {
		if err := json.Unmarshal(result.ResultJSON, &payload); err != nil {
			return nil, fmt.Errorf("decode result payload: %w", err)
		}
	}

	title := payload.Title
	if title == "" {
		title = result.VideoTitle
	}

	blocks := []notionclient.Block{
		notionclient.Heading1(title),
		notionclient.BookmarkBlock(result.VideoURL),
	}

	if payload.Summary != "" {
		blocks = append(blocks,
			notionclient.Heading2("Summary"),
			notionclient.Paragraph(payload.Summary),
		)
	}

	if len(payload.KeyTakeaways) > 0 {
		blocks = append(blocks, notionclient.Heading2("Key Takeaways"))
		for _, takeaway := range payload.KeyTakeaways {
			blocks = append(blocks, notionclient.BulletedItem(takeaway))
		}
	}

	if len(payload.Timeline) > 0 {
		blocks = append(blocks, notionclient.Heading2("Timeline"))
		for _, item := range payload.Timeline {
			heading := item.Timestamp
			if item.EndTimestamp != "" {
				heading += " - " + item.EndTimestamp
			}
			if item.Title != "" {
				heading += "  " + item.Title
			}
			blocks = append(blocks, notionclient.Heading3(heading))
			if item.Summary != "" {
				blocks = append(blocks, notionclient.Paragraph(item.Summary))
			}
			for _, point := range item.Points {
				blocks = append(blocks, notionclient.BulletedItem(point.Timestamp+"  "+point.Content))
			}
		}
	}

	if len(payload.VisualAudit) > 0 {
		blocks = append(blocks, notionclient.Heading2("Visual Audit"))
		for _, item := range payload.VisualAudit {
			blocks = append(blocks, notionclient.CalloutBlock(
				fmt.Sprintf("%s [%s] %s", item.Timestamp, item.Type, item.Detail), "👁️"))
		}
	}

	if len(payload.Keywords) > 0 {
		blocks = append(blocks, notionclient.Heading2("Keywords"))
		keywords := ""
		for i, kw := range payload.Keywords {
			if i > 0 {
				keywords += ", "
			}
			keywords += kw
		}
		blocks = append(blocks, notionclient.Paragraph(keywords))
	}

	return blocks, nil
}
