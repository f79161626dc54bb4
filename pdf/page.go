package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// pageContent is what the DOM walk produces for one page
type pageContent struct {
	text   strings.Builder
	titles []string
	images []string
}

// collectPage walks a page's rendered HTML. Heading text updates the
// title list and, when embedTitles is set, is wrapped back into the text
// as <hN> markup. MuPDF's positioned HTML printer never emits semantic
// heading tags, only styled paragraphs, so headings are recognized by
// span font size using the size classes MuPDF's own semantic output
// applies; explicit <h1>..<h6> tags are honored as well. Paragraphs
// contribute their text. When image extraction is on, inline data-URL
// images are decoded and saved wherever they appear in the tree.
// Everything else is skipped.
func collectPage(ctx context.Context, root *html.Node, opts *Options, saver *imageSaver) (*pageContent, error) {
	page := &pageContent{}
	if err := page.walk(ctx, root, opts, saver); err != nil {
		return nil, err
	}
	return page, nil
}

func (p *pageContent) walk(ctx context.Context, n *html.Node, opts *Options, saver *imageSaver) error {
	if n.Type == html.ElementNode {
		switch {
		case n.Data == "img":
			if opts.ExtractImages {
				return p.saveImage(ctx, n, saver)
			}
			return nil
		case headingLevel(n.Data) > 0:
			p.addTitle(textContent(n), headingLevel(n.Data), opts)
			return nil
		case n.Data == "p":
			return p.paragraph(ctx, n, opts, saver)
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := p.walk(ctx, child, opts, saver); err != nil {
			return err
		}
	}
	return nil
}

func (p *pageContent) paragraph(ctx context.Context, n *html.Node, opts *Options, saver *imageSaver) error {
	if opts.ExtractImages {
		if src, ok := inlineImageSrc(n); ok {
			if _, _, ok := decodeDataURL(src); ok {
				// The nested img node does the saving
				for child := n.FirstChild; child != nil; child = child.NextSibling {
					if err := p.walk(ctx, child, opts, saver); err != nil {
						return err
					}
				}
				return nil
			}
			// Not a base64 image, keep the paragraph text
			p.text.WriteString(textContent(n) + "\n")
			return nil
		}
	}

	text := textContent(n)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if level := headingLevelFromSize(maxFontSize(n)); level > 0 {
		p.addTitle(text, level, opts)
		return nil
	}

	p.text.WriteString(text + "\n")
	return nil
}

func (p *pageContent) addTitle(title string, level int, opts *Options) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	p.titles = append(p.titles, title)
	if opts.EmbedTitles {
		fmt.Fprintf(&p.text, "<h%d>%s</h%d>\n", level, html.EscapeString(title), level)
	} else {
		p.text.WriteString(title + "\n")
	}
}

func (p *pageContent) saveImage(ctx context.Context, n *html.Node, saver *imageSaver) error {
	src, ok := attrValue(n, "src")
	if !ok {
		return nil
	}
	ext, data, ok := decodeDataURL(src)
	if !ok {
		return nil
	}
	path, err := saver.save(ctx, ext, data)
	if err != nil {
		return err
	}
	p.images = append(p.images, path)
	return nil
}

// headingLevel returns 1-6 for h1-h6 element names and 0 otherwise
func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// headingSizes are the font-size classes, in points, at which MuPDF's
// semantic text output promotes a paragraph to h1, h2, h3
var headingSizes = []float64{20, 15, 12.5}

func headingLevelFromSize(size float64) int {
	for i, min := range headingSizes {
		if size >= min {
			return i + 1
		}
	}
	return 0
}

// maxFontSize returns the largest styled font size under n, in points
func maxFontSize(n *html.Node) float64 {
	var max float64
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if style, ok := attrValue(n, "style"); ok {
				if size, ok := fontSize(style); ok && size > max {
					max = size
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return max
}

// fontSize pulls the pt value out of a font-size style declaration
func fontSize(style string) (float64, bool) {
	for _, decl := range strings.Split(style, ";") {
		value, ok := strings.CutPrefix(strings.TrimSpace(decl), "font-size:")
		if !ok {
			continue
		}
		value = strings.TrimSuffix(strings.TrimSpace(value), "pt")
		size, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		return size, true
	}
	return 0, false
}

// textContent concatenates the text nodes under n
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return strings.TrimSpace(b.String())
}

// attrValue returns the named attribute of n
func attrValue(n *html.Node, name string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// inlineImageSrc finds the first img descendant of n and returns its src
func inlineImageSrc(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "img" {
		return attrValue(n, "src")
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if src, ok := inlineImageSrc(child); ok {
			return src, ok
		}
	}
	return "", false
}
