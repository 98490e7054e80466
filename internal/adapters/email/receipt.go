package email

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Receipt describes a submitted application for the confirmation email.
type Receipt struct {
	To            string
	Student       string
	ProjectTitle  string
	ApplicationID int64
	Status        string
	AppliedAt     time.Time
}

var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// ReceiptRequest builds the confirmation email for r.
// The body is written as Markdown and rendered to HTML; raw HTML inside
// project titles is escaped by the renderer.
// PRE: r.To is a non-empty address
// POST: Returns a request with both HTML and text bodies
func ReceiptRequest(r Receipt, from string) (SendRequest, error) {
	if r.To == "" {
		return SendRequest{}, fmt.Errorf("receipt recipient is required")
	}
	title := r.ProjectTitle
	if title == "" {
		title = "your selected project"
	}

	var md strings.Builder
	fmt.Fprintf(&md, "Hi %s,\n\n", r.Student)
	fmt.Fprintf(&md, "Your application for **%s** has been received.\n\n", escapeMarkdown(title))
	fmt.Fprintf(&md, "- Application: #%d\n", r.ApplicationID)
	fmt.Fprintf(&md, "- Status: %s\n", r.Status)
	if !r.AppliedAt.IsZero() {
		fmt.Fprintf(&md, "- Submitted: %s\n", r.AppliedAt.UTC().Format("2 Jan 2006 15:04 MST"))
	}
	md.WriteString("\nYou can follow its progress on your dashboard.\n")

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md.String()), &buf); err != nil {
		return SendRequest{}, fmt.Errorf("render receipt: %w", err)
	}
	return SendRequest{
		To:      []string{r.To},
		From:    from,
		Subject: "Application received: " + title,
		HTML:    buf.String(),
		Text:    md.String(),
		Tags: map[string]string{
			TagCategory:      CategoryReceipt,
			TagApplicationID: strconv.FormatInt(r.ApplicationID, 10),
		},
	}, nil
}

// escapeMarkdown backslash-escapes characters that would change emphasis or links.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`, "`", "\\`")
	return r.Replace(s)
}
