package building

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

func validAttrs() Attributes {
	return Attributes{
		ID:          "lib-001",
		Name:        "  Central Library ",
		ShortName:   "LIB",
		Coordinates: geo.Point{Latitude: 6.5187, Longitude: 3.3767},
		Keywords:    []string{" books ", "", "study"},
		Metadata:    map[string]any{"floors": 3},
	}
}

func TestNew_Valid(t *testing.T) {
	b, err := New(validAttrs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != "Central Library" {
		t.Errorf("Name() = %q, want trimmed", b.Name())
	}
	if b.Slug() != "central-library" {
		t.Errorf("Slug() = %q", b.Slug())
	}
	if b.Revision() != 1 {
		t.Errorf("Revision() = %d, want 1", b.Revision())
	}
	if len(b.Keywords()) != 2 || b.Keywords()[0] != "books" {
		t.Errorf("Keywords() = %v, want [books study]", b.Keywords())
	}
}

func TestNew_ExplicitSlug(t *testing.T) {
	a := validAttrs()
	a.Slug = "main-lib"
	b, err := New(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Slug() != "main-lib" {
		t.Errorf("Slug() = %q", b.Slug())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Attributes)
		want   string
	}{
		{"empty id", func(a *Attributes) { a.ID = "" }, "ID is required"},
		{"bad id", func(a *Attributes) { a.ID = "a/b" }, "alphanumeric"},
		{"long id", func(a *Attributes) { a.ID = strings.Repeat("x", MaxIDLength+1) }, "too long"},
		{"empty name", func(a *Attributes) { a.Name = "   " }, "slug is required"},
		{"blank name explicit slug", func(a *Attributes) { a.Name = " "; a.Slug = "x" }, "name is required"},
		{"bad slug", func(a *Attributes) { a.Slug = "Bad Slug" }, "invalid slug"},
		{"bad coords", func(a *Attributes) { a.Coordinates.Latitude = 91 }, "out of range"},
		{"bad entrance", func(a *Attributes) {
			a.Entrances = []Entrance{{Name: "Main", Coordinates: geo.Point{Latitude: 0, Longitude: 200}}}
		}, "entrance 0"},
		{"floor without number", func(a *Attributes) { a.Floors = []Floor{{}} }, "floor 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAttrs()
			tt.mutate(&a)
			_, err := New(a)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	a := validAttrs()
	b, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	a.Metadata["floors"] = 9
	if b.Metadata()["floors"] != 3 {
		t.Error("building shares metadata map with caller")
	}
}

func TestAttributes_DeepCopy(t *testing.T) {
	a := validAttrs()
	a.Floors = []Floor{{Number: "G", Facilities: []string{"Lift"}}}
	a.OpeningHours = &OpeningHours{Monday: "8-5"}
	b, _ := New(a)

	got := b.Attributes()
	got.Floors[0].Facilities[0] = "Stairs"
	got.OpeningHours.Monday = "closed"

	if b.Floors()[0].Facilities[0] != "Lift" {
		t.Error("floor facilities mutated through copy")
	}
	if b.OpeningHours().Monday != "8-5" {
		t.Error("opening hours mutated through copy")
	}
}

func TestWithImages(t *testing.T) {
	b, _ := New(validAttrs())
	b = b.WithTimestamps(4, 10, 20)
	u := b.WithImages("/images/a.jpg", "/images/a_thumb.jpg")
	if u.ImageURL() != "/images/a.jpg" || u.ThumbnailURL() != "/images/a_thumb.jpg" {
		t.Errorf("urls = %q %q", u.ImageURL(), u.ThumbnailURL())
	}
	if u.Revision() != 4 || u.CreatedAt() != 10 || u.UpdatedAt() != 20 {
		t.Errorf("timestamps not preserved: %d %d %d", u.Revision(), u.CreatedAt(), u.UpdatedAt())
	}
	if b.ImageURL() != "" {
		t.Error("original mutated")
	}
}

func TestReconstruct_NoValidation(t *testing.T) {
	b := Reconstruct(Attributes{ID: "x"}, 7, 1, 2)
	if b.Revision() != 7 {
		t.Errorf("Revision() = %d", b.Revision())
	}
	if err := b.Validate(); err == nil {
		t.Error("Validate() on empty building should fail")
	}
}
