// Package render turns embed definitions into the pages of the partner display.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/platform"
)

const (
	// MaxBlocksPerPage is Discord's embed limit per message.
	MaxBlocksPerPage = 10
	// MaxPartnersPerField keeps partner list fields well inside the field value length limit.
	MaxPartnersPerField = 10
	// DefaultInviteBaseURL prefixes invite codes in partner links.
	DefaultInviteBaseURL = "https://discord.gg/"
)

// Page is the content of exactly one hosted message.
type Page struct {
	Blocks []platform.Block
}

// PartnerLookup returns the partners of a category.
type PartnerLookup func(categoryID uuid.UUID) []models.Partner

// Planner renders definitions. The zero value uses DefaultInviteBaseURL.
type Planner struct {
	InviteBaseURL string
}

// Plan renders with the default planner.
func Plan(defs []models.EmbedDefinition, partners PartnerLookup) []Page {
	return Planner{}.Plan(defs, partners)
}

// Plan renders definitions in ascending sequence order, one block each, into pages of at most
// MaxBlocksPerPage blocks. No definitions yields no pages.
func (p Planner) Plan(defs []models.EmbedDefinition, partners PartnerLookup) []Page {
	ordered := make([]models.EmbedDefinition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	var pages []Page
	for _, def := range ordered {
		if len(pages) == 0 || len(pages[len(pages)-1].Blocks) >= MaxBlocksPerPage {
			pages = append(pages, Page{Blocks: make([]platform.Block, 0, MaxBlocksPerPage)})
		}
		last := &pages[len(pages)-1]
		last.Blocks = append(last.Blocks, p.block(def, partners))
	}
	return pages
}

func (p Planner) block(def models.EmbedDefinition, partners PartnerLookup) platform.Block {
	b := platform.Block{
		Description: def.BodyText,
		ImageURL:    def.ImageURL,
	}
	if def.Color != nil {
		c := *def.Color
		b.Color = &c
	}
	if def.CategoryID != nil && partners != nil {
		b.Fields = p.partnerFields(partners(*def.CategoryID))
	}
	return b
}

func (p Planner) partnerFields(list []models.Partner) []platform.Field {
	if len(list) == 0 {
		return nil
	}
	sorted := make([]models.Partner, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DisplayName < sorted[j].DisplayName })

	base := p.InviteBaseURL
	if base == "" {
		base = DefaultInviteBaseURL
	}
	fields := make([]platform.Field, 0, (len(sorted)+MaxPartnersPerField-1)/MaxPartnersPerField)
	for start := 0; start < len(sorted); start += MaxPartnersPerField {
		end := min(start+MaxPartnersPerField, len(sorted))
		lines := make([]string, 0, end-start)
		for _, partner := range sorted[start:end] {
			lines = append(lines, fmt.Sprintf("- [%s](%s%s)", partner.DisplayName, base, partner.InviteCode))
		}
		fields = append(fields, platform.Field{Value: strings.Join(lines, "\n"), Inline: true})
	}
	return fields
}
