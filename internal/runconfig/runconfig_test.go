package runconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOrPromptReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.txt")
	content := "cliente= Acme \n\nestado=Jalisco\nmunicipio=Zapopan  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rc, err := LoadOrPrompt(path, strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("LoadOrPrompt: %v", err)
	}

	want := RunConfig{Client: "Acme", Region: "Jalisco", SubRegion: "Zapopan"}
	if rc != want {
		t.Errorf("got %+v, want %+v", rc, want)
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt output, got %q", out.String())
	}
}

func TestLoadOrPromptMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte("cliente=Acme\nestado=X\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadOrPrompt(path, strings.NewReader("a\nb\nc\n"), &bytes.Buffer{})
	if !errors.Is(err, ErrMalformedConfig) {
		t.Fatalf("expected ErrMalformedConfig, got %v", err)
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("ErrMalformedConfig should also match ErrConfig")
	}
	if !strings.Contains(err.Error(), "municipio") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestLoadOrPromptPromptsAndSaves(t *testing.T) {
	tests := []struct {
		name  string
		setup func(path string)
	}{
		{"missing file", func(string) {}},
		{"empty file", func(path string) { os.WriteFile(path, nil, 0644) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.txt")
			tt.setup(path)

			var out bytes.Buffer
			rc, err := LoadOrPrompt(path, strings.NewReader("  Acme\nX \nY"), &out)
			if err != nil {
				t.Fatalf("LoadOrPrompt: %v", err)
			}
			want := RunConfig{Client: "Acme", Region: "X", SubRegion: "Y"}
			if rc != want {
				t.Errorf("got %+v, want %+v", rc, want)
			}
			if !strings.Contains(out.String(), "Ingrese el nombre del municipio") {
				t.Errorf("prompt output missing: %q", out.String())
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if got := string(data); got != "cliente=Acme\nestado=X\nmunicipio=Y\n" {
				t.Errorf("saved file = %q", got)
			}

			// Second load reads the file back without prompting.
			again, err := LoadOrPrompt(path, strings.NewReader(""), &bytes.Buffer{})
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if again != want {
				t.Errorf("reload got %+v, want %+v", again, want)
			}
		})
	}
}

func TestPromptShortInput(t *testing.T) {
	_, err := Prompt(strings.NewReader("Acme\n"), &bytes.Buffer{})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestParseKeepsEqualsInValue(t *testing.T) {
	rc, err := Parse(strings.NewReader("cliente=a=b\nestado=\nmunicipio=m\nnoise\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rc.Client != "a=b" {
		t.Errorf("Client = %q, want %q", rc.Client, "a=b")
	}
	if rc.Region != "" {
		t.Errorf("Region = %q, want empty", rc.Region)
	}
}
