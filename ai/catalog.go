package ai

import (
	"fmt"
	"slices"
)

// ProviderKind distinguishes generation providers from embedding providers.
type ProviderKind int

const (
	// KindGeneration marks providers that produce answer text.
	KindGeneration ProviderKind = iota + 1
	// KindEmbedding marks providers that produce embedding vectors.
	KindEmbedding
)

// String returns the kind name used in logs.
func (k ProviderKind) String() string {
	switch k {
	case KindGeneration:
		return "generation"
	case KindEmbedding:
		return "embedding"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ProviderDescriptor describes one catalogued provider. Descriptors are
// immutable after catalog construction.
type ProviderDescriptor struct {
	// ID is the stable provider/model identifier, e.g. "gemini-1.5-pro".
	ID string
	// Priority ranks providers of the same kind; lower is tried first.
	// Unique per kind.
	Priority int
	Kind     ProviderKind
	// TemperatureMin and TemperatureMax bound the temperature a generation
	// session may be constructed with. Requested values are clamped.
	TemperatureMin float64
	TemperatureMax float64
	// MaxOutputTokens caps generation output length.
	MaxOutputTokens int
	// DisplayName and Description are surfaced to callers listing providers.
	DisplayName string
	Description string
	// Capabilities are informational tags, e.g. "reasoning", "speed".
	Capabilities []string
}

// ClampTemperature bounds t to the descriptor's valid range.
func (d ProviderDescriptor) ClampTemperature(t float64) float64 {
	if t < d.TemperatureMin {
		return d.TemperatureMin
	}
	if t > d.TemperatureMax {
		return d.TemperatureMax
	}
	return t
}

// Catalog is the static, ordered registry of provider descriptors.
// It is read-only after construction and safe for concurrent readers.
type Catalog struct {
	byID    map[string]ProviderDescriptor
	ordered map[ProviderKind][]ProviderDescriptor
}

// NewCatalog builds a catalog from the given descriptors.
// Descriptor ids must be unique across the catalog; priorities must be
// unique within a kind. The priority ordering per kind is derived once
// and cached.
func NewCatalog(descs ...ProviderDescriptor) (*Catalog, error) {
	if len(descs) == 0 {
		return nil, ErrCatalogEmpty
	}

	byID := make(map[string]ProviderDescriptor, len(descs))
	ordered := make(map[ProviderKind][]ProviderDescriptor)
	priorities := make(map[ProviderKind]map[int]string)

	for _, desc := range descs {
		if desc.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
		}
		if desc.Kind != KindGeneration && desc.Kind != KindEmbedding {
			return nil, fmt.Errorf("%w: %s: unknown kind %d", ErrInvalidDescriptor, desc.ID, desc.Kind)
		}
		if desc.TemperatureMax < desc.TemperatureMin {
			return nil, fmt.Errorf("%w: %s: temperature range inverted", ErrInvalidDescriptor, desc.ID)
		}
		if _, exists := byID[desc.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProviderID, desc.ID)
		}
		if other, exists := priorities[desc.Kind][desc.Priority]; exists {
			return nil, fmt.Errorf("%w: %s and %s both at %d", ErrDuplicateProviderPriority, other, desc.ID, desc.Priority)
		}

		byID[desc.ID] = desc
		ordered[desc.Kind] = append(ordered[desc.Kind], desc)
		if priorities[desc.Kind] == nil {
			priorities[desc.Kind] = make(map[int]string)
		}
		priorities[desc.Kind][desc.Priority] = desc.ID
	}

	for kind := range ordered {
		slices.SortFunc(ordered[kind], func(a, b ProviderDescriptor) int {
			return a.Priority - b.Priority
		})
	}

	return &Catalog{byID: byID, ordered: ordered}, nil
}

// ListByPriority returns the descriptors of a kind in ascending priority
// order. The returned slice is shared and must not be mutated.
func (c *Catalog) ListByPriority(kind ProviderKind) []ProviderDescriptor {
	return c.ordered[kind]
}

// Lookup returns the descriptor for a provider id.
func (c *Catalog) Lookup(id string) (ProviderDescriptor, bool) {
	desc, ok := c.byID[id]
	return desc, ok
}

// Len returns the number of catalogued providers of a kind.
func (c *Catalog) Len(kind ProviderKind) int {
	return len(c.ordered[kind])
}

// DefaultCatalog returns the provider table the service ships with:
// the Gemini generation models ranked by precision, and the Gemini
// embedding models ranked by recency.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(
		ProviderDescriptor{
			ID:              "gemini-exp-1206",
			Priority:        1,
			Kind:            KindGeneration,
			TemperatureMin:  0.0,
			TemperatureMax:  2.0,
			MaxOutputTokens: 8192,
			DisplayName:     "Gemini Experimental 1206",
			Description:     "Advanced experimental model with improved capabilities and precision",
			Capabilities:    []string{"complex_reasoning", "analysis", "precision"},
		},
		ProviderDescriptor{
			ID:              "gemini-2.0-flash-exp",
			Priority:        2,
			Kind:            KindGeneration,
			TemperatureMin:  0.0,
			TemperatureMax:  2.0,
			MaxOutputTokens: 8192,
			DisplayName:     "Gemini 2.0 Flash (Experimental)",
			Description:     "Latest multimodal model with enhanced reasoning and flash speed",
			Capabilities:    []string{"general", "reasoning", "coding", "multimodal"},
		},
		ProviderDescriptor{
			ID:              "gemini-exp-1121",
			Priority:        3,
			Kind:            KindGeneration,
			TemperatureMin:  0.0,
			TemperatureMax:  2.0,
			MaxOutputTokens: 8192,
			DisplayName:     "Gemini Experimental 1121",
			Description:     "Enhanced experimental model for precision tasks and deep analysis",
			Capabilities:    []string{"precision", "analysis", "research"},
		},
		ProviderDescriptor{
			ID:              "gemini-1.5-pro",
			Priority:        4,
			Kind:            KindGeneration,
			TemperatureMin:  0.0,
			TemperatureMax:  2.0,
			MaxOutputTokens: 8192,
			DisplayName:     "Gemini 1.5 Pro",
			Description:     "Stable high-performance model with proven reliability",
			Capabilities:    []string{"general", "reliable", "production"},
		},
		ProviderDescriptor{
			ID:              "gemini-1.5-flash",
			Priority:        5,
			Kind:            KindGeneration,
			TemperatureMin:  0.0,
			TemperatureMax:  2.0,
			MaxOutputTokens: 8192,
			DisplayName:     "Gemini 1.5 Flash",
			Description:     "Fast and efficient model optimized for quick responses",
			Capabilities:    []string{"speed", "efficiency", "quick_tasks"},
		},
		ProviderDescriptor{
			ID:          "models/gemini-embedding-exp-03-07",
			Priority:    1,
			Kind:        KindEmbedding,
			DisplayName: "Gemini Embedding (Experimental)",
		},
		ProviderDescriptor{
			ID:          "models/embedding-001",
			Priority:    2,
			Kind:        KindEmbedding,
			DisplayName: "Embedding 001",
		},
		ProviderDescriptor{
			ID:          "models/text-embedding-004",
			Priority:    3,
			Kind:        KindEmbedding,
			DisplayName: "Text Embedding 004",
		},
	)
	if err != nil {
		// The default table is static; a construction failure is a programming error.
		panic(err)
	}
	return catalog
}
