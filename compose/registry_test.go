package compose

import (
	"errors"
	"testing"
)

func TestDefaultRegistry_List(t *testing.T) {
	r := DefaultRegistry("sample")

	templates := r.List()
	wantIDs := []string{"full", "split", "article"}
	if len(templates) != len(wantIDs) {
		t.Fatalf("Template count mismatch: got %d, want %d", len(templates), len(wantIDs))
	}
	for i, id := range wantIDs {
		if templates[i].ID != id {
			t.Errorf("Template %d mismatch: got %q, want %q", i, templates[i].ID, id)
		}
		if templates[i].Width != CanvasWidth || templates[i].Height != CanvasHeight {
			t.Errorf("Template %q canvas mismatch: got %dx%d", id, templates[i].Width, templates[i].Height)
		}
		if templates[i].PreviewAssetID != "sample" {
			t.Errorf("Template %q preview asset mismatch: got %q", id, templates[i].PreviewAssetID)
		}
	}
}

func TestRegistry_ListIsCopy(t *testing.T) {
	r := DefaultRegistry("sample")

	templates := r.List()
	templates[0].ID = "mutated"

	if r.List()[0].ID != "full" {
		t.Error("List() exposed internal state")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := DefaultRegistry("sample")

	tpl, err := r.Get("article")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if tpl.DisplayName != "Article Badge" {
		t.Errorf("DisplayName mismatch: got %q, want %q", tpl.DisplayName, "Article Badge")
	}
	if _, ok := tpl.BadgeAnchor(LogoAnchor); !ok {
		t.Error("article template has no logo anchor")
	}

	_, err = r.Get("unknown-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Error mismatch: got %v, want ErrNotFound", err)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry("sample")

	if got := r.Resolve("split").ID; got != "split" {
		t.Errorf("Resolve(split) mismatch: got %q", got)
	}
	if got := r.Resolve("unknown-id").ID; got != DefaultTemplateID {
		t.Errorf("Resolve(unknown) mismatch: got %q, want %q", got, DefaultTemplateID)
	}
	if got := r.Resolve("").ID; got != DefaultTemplateID {
		t.Errorf("Resolve(\"\") mismatch: got %q, want %q", got, DefaultTemplateID)
	}

	custom := NewRegistry(Template{ID: "only", Family: FamilySplit})
	if got := custom.Resolve("x").ID; got != "only" {
		t.Errorf("Resolve without default mismatch: got %q, want only", got)
	}
}

func TestNewRegistry_Panics(t *testing.T) {
	tests := []struct {
		name      string
		templates []Template
	}{
		{"empty id", []Template{{Family: FamilySplit}}},
		{"duplicate", []Template{{ID: "a", Family: FamilySplit}, {ID: "a", Family: FamilySplit}}},
		{"unknown family", []Template{{ID: "a", Family: "mystery"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("NewRegistry() did not panic")
				}
			}()
			NewRegistry(tt.templates...)
		})
	}
}
