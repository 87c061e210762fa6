package htmlutil

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ToMarkdown renders an html fragment as markdown text. It covers the
// subset of tags course pages actually use: headings, paragraphs,
// lists, code blocks, emphasis, links and images. Unknown elements
// fall through to their children.
func ToMarkdown(node *html.Node) string {
	var b strings.Builder
	renderMarkdown(&b, node, renderState{})
	return collapseBlankLines(strings.TrimSpace(b.String())) + "\n"
}

type renderState struct {
	listDepth   int
	ordered     bool
	listCounter int
	inPre       bool
}

var manyBlankLines = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(s string) string {
	return manyBlankLines.ReplaceAllString(s, "\n\n")
}

func renderChildren(b *strings.Builder, node *html.Node, st renderState) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		renderMarkdown(b, child, st)
	}
}

func attrVal(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderMarkdown(b *strings.Builder, node *html.Node, st renderState) {
	if node == nil {
		return
	}

	switch node.Type {
	case html.TextNode:
		if st.inPre {
			b.WriteString(node.Data)
			return
		}
		text := innerWhitespace.ReplaceAllString(node.Data, " ")
		text = strings.ReplaceAll(text, "\n", " ")
		b.WriteString(text)
		return
	case html.CommentNode:
		return
	case html.DocumentNode:
		renderChildren(b, node, st)
		return
	case html.ElementNode:
		// handled below
	default:
		renderChildren(b, node, st)
		return
	}

	switch node.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(node.Data[1] - '0')
		b.WriteString("\n\n")
		b.WriteString(strings.Repeat("#", level))
		b.WriteString(" ")
		b.WriteString(CleanText(GetText(node)))
		b.WriteString("\n\n")
	case "p", "div", "section", "article":
		b.WriteString("\n\n")
		renderChildren(b, node, st)
		b.WriteString("\n\n")
	case "br":
		b.WriteString("\n")
	case "hr":
		b.WriteString("\n\n---\n\n")
	case "strong", "b":
		b.WriteString("**")
		renderChildren(b, node, st)
		b.WriteString("**")
	case "em", "i":
		b.WriteString("*")
		renderChildren(b, node, st)
		b.WriteString("*")
	case "code":
		if st.inPre {
			renderChildren(b, node, st)
			return
		}
		b.WriteString("`")
		renderChildren(b, node, st)
		b.WriteString("`")
	case "pre":
		st.inPre = true
		b.WriteString("\n\n```\n")
		renderChildren(b, node, st)
		b.WriteString("\n```\n\n")
	case "blockquote":
		var inner strings.Builder
		renderChildren(&inner, node, st)
		for _, line := range strings.Split(strings.TrimSpace(inner.String()), "\n") {
			b.WriteString("\n> ")
			b.WriteString(line)
		}
		b.WriteString("\n\n")
	case "a":
		href := attrVal(node, "href")
		text := CleanText(GetText(node))
		if href == "" {
			b.WriteString(text)
			return
		}
		fmt.Fprintf(b, "[%s](%s)", text, href)
	case "img":
		fmt.Fprintf(b, "![%s](%s)", attrVal(node, "alt"), attrVal(node, "src"))
	case "ul":
		st.listDepth++
		st.ordered = false
		b.WriteString("\n")
		renderChildren(b, node, st)
		b.WriteString("\n")
	case "ol":
		st.listDepth++
		st.ordered = true
		st.listCounter = 0
		b.WriteString("\n")
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.Data == "li" {
				st.listCounter++
			}
			renderMarkdown(b, child, st)
		}
		b.WriteString("\n")
		return
	case "li":
		indent := strings.Repeat("  ", max(st.listDepth-1, 0))
		if st.ordered {
			fmt.Fprintf(b, "%s%d. ", indent, st.listCounter)
		} else {
			b.WriteString(indent + "- ")
		}
		var inner strings.Builder
		renderChildren(&inner, node, st)
		b.WriteString(strings.TrimSpace(inner.String()))
		b.WriteString("\n")
	case "script", "style", "head", "noscript":
		// dropped
	default:
		renderChildren(b, node, st)
	}
}
