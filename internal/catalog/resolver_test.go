package catalog

import (
	"math/rand"
	"testing"

	"github.com/talkincode/toughstore/internal/domain"
)

func weightVariants(values ...string) []domain.ProductVariant {
	out := make([]domain.ProductVariant, len(values))
	for i, v := range values {
		out[i] = domain.ProductVariant{
			ID:           int64(i + 1),
			VariantType:  domain.VariantTypeWeight,
			VariantValue: v,
		}
	}
	return out
}

func sortedValues(variants []domain.ProductVariant) []string {
	out := make([]string, len(variants))
	for i, v := range SortVariants(variants) {
		out[i] = v.VariantValue
	}
	return out
}

func TestParseWeightGrams(t *testing.T) {
	tests := []struct {
		value string
		want  float64
		ok    bool
	}{
		{"1kg", 1000, true},
		{"1.5 kg", 1500, true},
		{"500g", 500, true},
		{"500MG", 0.5, true},
		{"2lb", 907.184, true},
		{"1 pound", 453.592, true},
		{"4oz", 113.398, true},
		{"250", 250, true},
		{"large", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseWeightGrams(tt.value)
		if ok != tt.ok {
			t.Errorf("parseWeightGrams(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			continue
		}
		if ok && (got < tt.want-0.01 || got > tt.want+0.01) {
			t.Errorf("parseWeightGrams(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSortVariantsWeightSet(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{"mixed kilo and gram", []string{"1kg", "500g", "250g"}, []string{"250g", "500g", "1kg"}},
		{"cross unit", []string{"2lb", "1000g"}, []string{"2lb", "1000g"}},
		{"milligram below gram", []string{"500mg", "1g"}, []string{"500mg", "1g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sortedValues(weightVariants(tt.values...))
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSortVariantsNumericSet(t *testing.T) {
	variants := []domain.ProductVariant{
		{ID: 1, VariantType: domain.VariantTypePcs, VariantValue: "12pcs"},
		{ID: 2, VariantType: domain.VariantTypePcs, VariantValue: "6pcs"},
	}
	got := sortedValues(variants)
	if got[0] != "6pcs" || got[1] != "12pcs" {
		t.Fatalf("order = %v, want [6pcs 12pcs]", got)
	}
}

func TestSortVariantsUnparsedFallsBackToPriceThenName(t *testing.T) {
	variants := []domain.ProductVariant{
		{ID: 1, VariantType: domain.VariantTypeSize, VariantValue: "Small", Price: 500},
		{ID: 2, VariantType: domain.VariantTypeSize, VariantValue: "Large", Price: 300},
	}
	got := sortedValues(variants)
	if got[0] != "Large" || got[1] != "Small" {
		t.Fatalf("price order = %v, want [Large Small]", got)
	}

	// Equal prices fall through to case-insensitive name order.
	variants[0].Price = 300
	got = sortedValues(variants)
	if got[0] != "Large" || got[1] != "Small" {
		t.Fatalf("name order = %v, want [Large Small]", got)
	}
}

func TestSortVariantsParsedBeforeUnparsed(t *testing.T) {
	variants := []domain.ProductVariant{
		{ID: 1, VariantType: domain.VariantTypeSize, VariantValue: "One Size", Price: 100},
		{ID: 2, VariantType: domain.VariantTypeSize, VariantValue: "40", Price: 900},
	}
	got := sortedValues(variants)
	if got[0] != "40" {
		t.Fatalf("order = %v, want parsed value first", got)
	}
}

func TestSortVariantsDeterministic(t *testing.T) {
	base := weightVariants("1kg", "500g", "250g", "2lb", "box", "750g")
	want := sortedValues(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.ProductVariant, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := sortedValues(shuffled)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("iteration %d: order = %v, want %v", i, got, want)
			}
		}
	}
}

func TestSortVariantsDoesNotMutateInput(t *testing.T) {
	input := weightVariants("1kg", "250g")
	_ = SortVariants(input)
	if input[0].VariantValue != "1kg" {
		t.Fatalf("input slice was reordered")
	}
}

func TestActiveVariant(t *testing.T) {
	sorted := SortVariants(weightVariants("1kg", "500g", "250g"))

	if got := ActiveVariant(sorted, 0); got == nil || got.VariantValue != "250g" {
		t.Fatalf("default active = %+v, want first sorted", got)
	}

	// A remembered selection wins while it exists.
	var kg *domain.ProductVariant
	for i := range sorted {
		if sorted[i].VariantValue == "1kg" {
			kg = &sorted[i]
		}
	}
	if got := ActiveVariant(sorted, kg.ID); got.ID != kg.ID {
		t.Fatalf("selected active = %+v, want id %d", got, kg.ID)
	}

	// A stale selection falls back to the sorted head.
	if got := ActiveVariant(sorted, 99999); got.VariantValue != "250g" {
		t.Fatalf("stale selection active = %+v, want first sorted", got)
	}

	if got := ActiveVariant(nil, 1); got != nil {
		t.Fatalf("empty set active = %+v, want nil", got)
	}
}
