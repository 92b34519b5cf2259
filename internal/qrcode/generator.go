// Package qrcode writes the QR artifact for each issued token: a PNG
// encoding the public validation URL, named after the respondent's emails
// so operators can find it during the mail merge.
package qrcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	qrc "github.com/skip2/go-qrcode"
)

type Generator struct {
	dir     string
	baseURL string
}

func NewGenerator(dir, baseURL string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr code dir: %w", err)
	}
	return &Generator{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// ValidationURL is the link encoded in the QR image.
func (g *Generator) ValidationURL(token string) string {
	return g.baseURL + "/validate/" + token
}

// PathFor returns the file path a QR code for these emails and token is
// written to. Deterministic so later tooling can locate existing images.
func (g *Generator) PathFor(emails []string, token string) string {
	parts := make([]string, 0, len(emails))
	for _, e := range emails {
		parts = append(parts, sanitizeEmail(e))
	}
	return filepath.Join(g.dir, strings.Join(parts, "-")+"-"+token+".png")
}

func (g *Generator) Generate(emails []string, token string) (string, error) {
	path := g.PathFor(emails, token)
	if err := qrc.WriteFile(g.ValidationURL(token), qrc.Medium, 256, path); err != nil {
		return "", fmt.Errorf("write qr image: %w", err)
	}
	return path, nil
}

// Clear removes every generated image, used by the database rebuild.
func (g *Generator) Clear() error {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return fmt.Errorf("read qr code dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".png" {
			continue
		}
		if err := os.Remove(filepath.Join(g.dir, entry.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func sanitizeEmail(email string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, email))
}
