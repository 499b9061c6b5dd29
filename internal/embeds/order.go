package embeds

import (
	"fmt"
	"sort"

	"github.com/partnerbot/backend/internal/models"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

// Renumber sorts defs by sequence and assigns sequences 1..N, keeping relative order.
func Renumber(defs []models.EmbedDefinition) []models.EmbedDefinition {
	out := make([]models.EmbedDefinition, len(defs))
	copy(out, defs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	for i := range out {
		out[i].Sequence = i + 1
	}
	return out
}

// Reorder returns defs in the order given by names with sequences 1..N. names must list every
// definition exactly once.
func Reorder(defs []models.EmbedDefinition, names []string) ([]models.EmbedDefinition, error) {
	if len(names) != len(defs) {
		return nil, apperrors.NewValidationError("order", fmt.Sprintf("expected %d embed names, got %d", len(defs), len(names)))
	}
	byName := make(map[string]models.EmbedDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	out := make([]models.EmbedDefinition, 0, len(names))
	for i, name := range names {
		d, ok := byName[name]
		if !ok {
			return nil, apperrors.NewValidationError("order", fmt.Sprintf("unknown or repeated embed %q", name))
		}
		delete(byName, name)
		d.Sequence = i + 1
		out = append(out, d)
	}
	return out, nil
}
