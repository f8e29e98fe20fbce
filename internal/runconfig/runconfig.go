// Package runconfig persists the operator-supplied metadata stamped on every
// extracted message: client, state and municipality.
package runconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// File keys.
const (
	KeyClient    = "cliente"
	KeyRegion    = "estado"
	KeySubRegion = "municipio"
)

var (
	// ErrConfig marks any failure to obtain the run configuration.
	ErrConfig = errors.New("run config error")
	// ErrMalformedConfig is returned when a required key is missing from the file.
	ErrMalformedConfig = fmt.Errorf("%w: malformed config", ErrConfig)
)

// RunConfig holds the metadata for one run. Immutable once loaded.
type RunConfig struct {
	Client    string
	Region    string
	SubRegion string
}

// LoadOrPrompt reads the run config from path when it exists and is non-empty.
// Otherwise it asks for the three values on out, reads the answers from in,
// saves them to path and returns them.
func LoadOrPrompt(path string, in io.Reader, out io.Writer) (RunConfig, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir() && info.Size() > 0:
		f, err := os.Open(path)
		if err != nil {
			return RunConfig{}, fmt.Errorf("%w: failed to open %s: %v", ErrConfig, path, err)
		}
		defer f.Close()
		return Parse(f)
	case err != nil && !os.IsNotExist(err):
		return RunConfig{}, fmt.Errorf("%w: failed to stat %s: %v", ErrConfig, path, err)
	}

	rc, err := Prompt(in, out)
	if err != nil {
		return RunConfig{}, err
	}
	if err := Save(path, rc); err != nil {
		return RunConfig{}, err
	}
	return rc, nil
}

// Parse reads key=value lines. Blank lines and lines without '=' are ignored;
// later duplicates override earlier ones.
func Parse(r io.Reader) (RunConfig, error) {
	kv := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		kv[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return RunConfig{}, fmt.Errorf("%w: read failed: %v", ErrConfig, err)
	}

	var missing []string
	for _, k := range []string{KeyClient, KeyRegion, KeySubRegion} {
		if _, ok := kv[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return RunConfig{}, fmt.Errorf("%w: missing key(s) %s", ErrMalformedConfig, strings.Join(missing, ", "))
	}

	return RunConfig{
		Client:    kv[KeyClient],
		Region:    kv[KeyRegion],
		SubRegion: kv[KeySubRegion],
	}, nil
}

// Prompt asks for the three values interactively.
func Prompt(in io.Reader, out io.Writer) (RunConfig, error) {
	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "Bienvenido, configuraremos algunos detalles antes de empezar.")

	ask := func(label string) (string, error) {
		fmt.Fprintf(out, "Ingrese el nombre del %s: ", label)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("%w: no answer for %s: %v", ErrConfig, label, err)
		}
		return strings.TrimSpace(line), nil
	}

	var rc RunConfig
	var err error
	if rc.Client, err = ask("cliente"); err != nil {
		return RunConfig{}, err
	}
	if rc.Region, err = ask("estado"); err != nil {
		return RunConfig{}, err
	}
	if rc.SubRegion, err = ask("municipio"); err != nil {
		return RunConfig{}, err
	}
	return rc, nil
}

// Save writes rc to path, replacing any existing content.
func Save(path string, rc RunConfig) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", KeyClient, rc.Client)
	fmt.Fprintf(&b, "%s=%s\n", KeyRegion, rc.Region)
	fmt.Fprintf(&b, "%s=%s\n", KeySubRegion, rc.SubRegion)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrConfig, path, err)
	}
	return nil
}
