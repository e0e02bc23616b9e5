// Package renderer scans assistant message content for executable directive
// blocks and splits the rest into pieces for the display collaborators.
package renderer

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DirectiveLanguage is the reserved fence tag marking an executable directive.
const DirectiveLanguage = "plugin"

type SegmentKind int

const (
	// SegmentText is ordinary markdown, handed to the markdown display
	// collaborator as-is. Inline code spans stay inside it as plain text.
	SegmentText SegmentKind = iota
	// SegmentCode is a non-directive fenced block for the code-display
	// collaborator, with a language hint from the fence tag.
	SegmentCode
	// SegmentDirective is a fenced block tagged with DirectiveLanguage; its
	// Text is the verbatim directive source.
	SegmentDirective
)

// Segment is one rendered piece of a message, in document order.
type Segment struct {
	Kind     SegmentKind
	Text     string
	Language string
}

// Link is a block-level hyperlink found in message content, carrying the safe
// default attributes a rendered anchor must get.
type Link struct {
	URL    string
	Label  string
	Target string // always "_blank": new browsing context
	Rel    string // always "nofollow noopener noreferrer"
}

// Renderer parses message markdown and locates directive blocks.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type fence struct {
	language   string
	body       string
	start, end int // outer range in the source, fences included
}

// Render splits content into segments: directive blocks, code blocks, and the
// markdown text between them.
func (r *Renderer) Render(content string) []Segment {
	source := []byte(content)
	fences := r.scanFences(source)

	var segments []Segment
	pos := 0
	for _, f := range fences {
		if text := string(source[pos:f.start]); strings.TrimSpace(text) != "" {
			segments = append(segments, Segment{Kind: SegmentText, Text: text})
		}
		kind := SegmentCode
		if f.language == DirectiveLanguage {
			kind = SegmentDirective
		}
		segments = append(segments, Segment{Kind: kind, Text: f.body, Language: f.language})
		pos = f.end
	}
	if text := string(source[pos:]); strings.TrimSpace(text) != "" {
		segments = append(segments, Segment{Kind: SegmentText, Text: text})
	}
	return segments
}

// Directives returns the verbatim source of every directive block in content,
// in document order.
func (r *Renderer) Directives(content string) []string {
	var out []string
	for _, seg := range r.Render(content) {
		if seg.Kind == SegmentDirective {
			out = append(out, seg.Text)
		}
	}
	return out
}

// Links returns the block-level markdown links in content with safe default
// attributes. Link-shaped inline text (autolinks) is demoted to plain text
// and therefore not reported.
func (r *Renderer) Links(content string) []Link {
	source := []byte(content)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var links []Link
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			links = append(links, Link{
				URL:    string(link.Destination),
				Label:  nodeText(link, source),
				Target: "_blank",
				Rel:    "nofollow noopener noreferrer",
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return links
}

func (r *Renderer) scanFences(source []byte) []fence {
	doc := r.md.Parser().Parse(text.NewReader(source))

	var fences []fence
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		start, end := fenceOuterRange(source, block)
		if start < 0 {
			return ast.WalkSkipChildren, nil
		}
		var body strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(source[seg.Start:seg.Stop])
		}
		fences = append(fences, fence{
			language: string(block.Language(source)),
			body:     strings.TrimSuffix(body.String(), "\n"),
			start:    start,
			end:      end,
		})
		return ast.WalkSkipChildren, nil
	})
	sort.Slice(fences, func(i, j int) bool { return fences[i].start < fences[j].start })
	return fences
}

// fenceOuterRange computes the source range of a fenced block including its
// delimiter lines. goldmark only tracks the body lines, so the opening fence
// is found by backing up to the start of the info line and the closing fence
// by consuming the line after the last body line.
func fenceOuterRange(source []byte, block *ast.FencedCodeBlock) (int, int) {
	var anchor int
	switch {
	case block.Info != nil:
		anchor = block.Info.Segment.Start
	case block.Lines().Len() > 0:
		anchor = block.Lines().At(0).Start
	default:
		return -1, -1
	}
	start := anchor
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	end := anchor
	if lines := block.Lines(); lines.Len() > 0 {
		end = lines.At(lines.Len() - 1).Stop
	}
	for end < len(source) && source[end] != '\n' {
		end++
	}
	if end < len(source) {
		end++
	}
	return start, end
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			sb.Write(source[t.Segment.Start:t.Segment.Stop])
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
