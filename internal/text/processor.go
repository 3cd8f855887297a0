// Package text turns agent messages, which are often Markdown, into plain
// text suitable for speech synthesis.
package text

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxChars bounds the length of a single utterance.
const DefaultMaxChars = 1000

// ErrEmpty is returned when nothing speakable remains after processing.
var ErrEmpty = errors.New("nothing to speak")

var (
	symbols = strings.NewReplacer(
		"->", " to ",
		"=>", " to ",
		"&&", " and ",
		"||", " or ",
		">=", " at least ",
		"<=", " at most ",
		"!=", " not equal to ",
		"==", " equals ",
	)

	whitespace  = regexp.MustCompile(`\s+`)
	repeatPunct = regexp.MustCompile(`([.!?,;:])[.!?,;:]+`)
	spaceBefore = regexp.MustCompile(`\s+([.!?,;:])`)
)

// Processor extracts speakable text from Markdown.
type Processor struct {
	maxChars int
	md       goldmark.Markdown
}

// New returns a Processor truncating output to maxChars runes. A maxChars
// of zero or less uses DefaultMaxChars.
func New(maxChars int) *Processor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Processor{
		maxChars: maxChars,
		md:       goldmark.New(),
	}
}

// Process returns the speakable form of s, or ErrEmpty.
func (p *Processor) Process(s string) (string, error) {
	plain := p.extractPlainText(s)
	plain = symbols.Replace(plain)
	plain = whitespace.ReplaceAllString(plain, " ")
	plain = spaceBefore.ReplaceAllString(plain, "$1")
	plain = repeatPunct.ReplaceAllString(plain, "$1")
	plain = norm.NFC.String(strings.TrimSpace(plain))

	if strings.IndexFunc(plain, speakable) < 0 {
		return "", ErrEmpty
	}
	return truncate(plain, p.maxChars), nil
}

func speakable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func (p *Processor) extractPlainText(markdown string) string {
	reader := gmtext.NewReader([]byte(markdown))
	doc := p.md.Parser().Parse(reader)

	var buf strings.Builder
	walk(doc, reader.Source(), &buf)
	return buf.String()
}

func walk(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.AutoLink:
		buf.Write(n.Label(source))
		return

	case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.TextBlock:
		walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.ThematicBreak:
		endSentence(buf)
		return
	}

	// Links, images (alt text), emphasis, inline code, lists and quotes
	// contribute their children.
	walkChildren(node, source, buf)
}

func walkChildren(node ast.Node, source []byte, buf *strings.Builder) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walk(c, source, buf)
	}
}

// endSentence closes a block with a full stop unless it already ends in
// punctuation.
func endSentence(buf *strings.Builder) {
	s := strings.TrimRightFunc(buf.String(), unicode.IsSpace)
	if s == "" {
		return
	}
	if r := []rune(s)[len([]rune(s))-1]; !strings.ContainsRune(".!?:;", r) {
		buf.WriteByte('.')
	}
	buf.WriteByte(' ')
}

// truncate cuts s to at most max runes, backing up to the last word boundary
// when one exists.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := runes[:max]
	if !unicode.IsSpace(runes[max]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace)
}
