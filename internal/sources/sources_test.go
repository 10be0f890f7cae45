package sources

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/Iron-Ham/tandem/internal/errors"
)

func TestNormalize(t *testing.T) {
	wd, err := filepath.Abs(".")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"relative path", "doc_en.txt", filepath.Join(wd, "doc_en.txt"), false},
		{"dot segments", "./a/../doc_fr.txt", filepath.Join(wd, "doc_fr.txt"), false},
		{"absolute path", "/tmp/doc.txt", "/tmp/doc.txt", false},
		{"uri kept", "https://example.com/doc_en", "https://example.com/doc_en", false},
		{"file uri kept", "file:///tmp/doc.odt", "file:///tmp/doc.odt", false},
		{"surrounding space", "  /tmp/doc.txt ", "/tmp/doc.txt", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidInput) {
					t.Errorf("Normalize(%q) error = %v, want ErrInvalidInput", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		excludes []string
		want     []string
	}{
		{
			name: "keeps order",
			args: []string{"/d/doc_fr.txt", "/d/doc_en.txt"},
			want: []string{"/d/doc_fr.txt", "/d/doc_en.txt"},
		},
		{
			name: "drops duplicates",
			args: []string{"/d/doc_en.txt", "/d/x/../doc_en.txt", "/d/doc_fr.txt"},
			want: []string{"/d/doc_en.txt", "/d/doc_fr.txt"},
		},
		{
			name:     "excludes by base name",
			args:     []string{"/d/doc_en.txt", "/d/notes.md"},
			excludes: []string{"*.md"},
			want:     []string{"/d/doc_en.txt"},
		},
		{
			name:     "excludes by full path",
			args:     []string{"/d/drafts/a.txt", "/d/final/b.txt"},
			excludes: []string{"**/drafts/*"},
			want:     []string{"/d/final/b.txt"},
		},
		{
			name:     "uri base name",
			args:     []string{"https://example.com/docs/guide.pdf?v=2", "/d/doc_en.txt"},
			excludes: []string{"*.pdf"},
			want:     []string{"/d/doc_en.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.args, tt.excludes)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		excludes []string
		field    string
	}{
		{"no args", nil, nil, "sources"},
		{"everything excluded", []string{"/d/a.md"}, []string{"*.md"}, "sources"},
		{"bad pattern", []string{"/d/a.md"}, []string{"[a-"}, "exclude"},
		{"empty arg", []string{"/d/a.md", ""}, nil, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.args, tt.excludes)

			var valErr *errors.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *errors.ValidationError, got %v", err)
			}
			if valErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", valErr.Field, tt.field)
			}
		})
	}
}

func TestShortName(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"/d/doc_en.txt", "doc_en"},
		{"/d/report.final.odt", "report_final"},
		{"/d/.bashrc", "_bashrc"},
		{"/d/Makefile", "Makefile"},
		{"https://example.com/docs/guide.pdf?x=1", "guide"},
		{"https://example.com/docs/", "docs"},
		{"/d/naïve:doc.txt", "na_ve_doc"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := ShortName(tt.src); got != tt.want {
				t.Errorf("ShortName(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}
