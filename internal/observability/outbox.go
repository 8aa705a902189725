package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// outboxNotifier writes each alert as a markdown file with YAML frontmatter
// into an outbox directory, for pickup by other tools.
type outboxNotifier struct {
	dir string
}

// NewOutboxNotifier creates a Notifier that writes alerts to dir, creating
// it if needed.
func NewOutboxNotifier(dir string) (Notifier, error) {
	if dir == "" {
		return nil, fmt.Errorf("creating outbox notifier: directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating outbox directory %s: %w", dir, err)
	}
	return &outboxNotifier{dir: dir}, nil
}

// outboxFrontmatter is the YAML frontmatter of an outbox file.
type outboxFrontmatter struct {
	ID          string `yaml:"id"`
	Condition   string `yaml:"condition"`
	Severity    string `yaml:"severity"`
	TriggeredAt string `yaml:"triggered_at"`
	Status      string `yaml:"status"`
}

// Notify writes one file per alert. Files are named by trigger time and
// alert ID, so re-sending the same evaluation overwrites rather than
// duplicates.
func (n *outboxNotifier) Notify(ctx context.Context, alerts []Alert) error {
	for _, a := range alerts {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := renderOutboxFile(a)
		if err != nil {
			return fmt.Errorf("rendering outbox file: %w", err)
		}
		name := fmt.Sprintf("%s-%s.md", a.TriggeredAt.UTC().Format("20060102T150405Z"), sanitizeFilename(a.ID))
		if err := os.WriteFile(filepath.Join(n.dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing outbox file: %w", err)
		}
	}
	return nil
}

func renderOutboxFile(a Alert) (string, error) {
	fm, err := yaml.Marshal(outboxFrontmatter{
		ID:          a.ID,
		Condition:   a.Condition,
		Severity:    string(a.Severity),
		TriggeredAt: a.TriggeredAt.UTC().Format(time.RFC3339),
		Status:      "sent",
	})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fm)
	sb.WriteString("---\n\n")
	sb.WriteString(a.Message)
	sb.WriteString("\n")
	return sb.String(), nil
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}

// multiNotifier fans alerts out to several notifiers.
type multiNotifier []Notifier

// NewMultiNotifier combines notifiers. Nil entries are dropped; with a single
// remaining notifier it is returned as is, and with none the result is nil.
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	var out multiNotifier
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Notify sends to every notifier and joins their errors.
func (m multiNotifier) Notify(ctx context.Context, alerts []Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
