// Package brands reads the curated known-brands list from disk.
package brands

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"

	"github.com/shelflens/backend/internal/domain"
)

// DefaultFileName is the brand list file name tried when no path is configured
const DefaultFileName = "marcas_conhecidas.py"

// quotedStringPattern captures "..." and '...' literals, tolerating broken Python syntax
var quotedStringPattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

type yamlBrandFile struct {
	Brands []string `yaml:"brands"`
}

// Locate returns path when it exists, else the first existing default location:
// ./marcas_conhecidas.py, then ./referenciais/marcas_conhecidas.py
func Locate(path string) (string, error) {
	candidates := []string{}
	if path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates,
		DefaultFileName,
		filepath.Join("referenciais", DefaultFileName),
	)

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: no brand list found (tried %s)", domain.ErrRegistryUnavailable, strings.Join(candidates, ", "))
}

// Load reads brand names from path. The format follows the extension: .py files yield
// every quoted string literal, .yaml/.yml a list or a {brands: [...]} document, anything
// else one name per line with # comments. Blank names and exact repeats are dropped;
// spelling variants are all returned.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRegistryUnavailable, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrRegistryUnavailable, path, err)
	}
	data = bytes.ToValidUTF8(data, []byte("�"))

	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		names = parsePython(data)
	case ".yaml", ".yml":
		names, err = parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrRegistryUnavailable, path, err)
		}
	default:
		names, err = parseLines(data)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %v", domain.ErrRegistryUnavailable, path, err)
		}
	}

	names = dedupExact(names)
	log.WithFields(log.Fields{
		"component": "brands",
		"path":      path,
		"count":     len(names),
	}).Info("brand list loaded")

	return names, nil
}

func parsePython(data []byte) []string {
	var names []string
	for _, m := range quotedStringPattern.FindAllSubmatch(data, -1) {
		v := m[1]
		if len(v) == 0 {
			v = m[2]
		}
		names = append(names, string(v))
	}
	return names
}

func parseYAML(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc yamlBrandFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Brands, nil
}

func parseLines(data []byte) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func dedupExact(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
