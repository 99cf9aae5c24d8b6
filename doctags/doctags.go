// Package doctags converts DocTags markup, the output vocabulary of
// vision-to-sequence document models, into Markdown. The converter is
// tolerant: unknown tags degrade to their inner text, location tokens and
// page furniture are dropped.
package doctags

import (
	"fmt"
	"strings"
)

// tag names with special rendering. Everything else falls through to plain
// text.
const (
	tagDocTag    = "doctag"
	tagTitle     = "title"
	tagText      = "text"
	tagParagraph = "paragraph"
	tagCaption   = "caption"
	tagFootnote  = "footnote"
	tagFormula   = "formula"
	tagCode      = "code"
	tagPicture   = "picture"
	tagChart     = "chart"

	tagPageHeader = "page_header"
	tagPageFooter = "page_footer"

	tagOrderedList   = "ordered_list"
	tagUnorderedList = "unordered_list"
	tagListItem      = "list_item"

	tagTable      = "otsl"
	tagFullCell   = "fcel"
	tagEmptyCell  = "ecel"
	tagColHeader  = "ched"
	tagRowHeader  = "rhed"
	tagSectHeader = "srow"
	tagNewLine    = "nl"

	sectionHeaderPrefix = "section_header_level_"
	endOfUtterance      = "end_of_utterance"
)

type listFrame struct {
	ordered bool
	counter int
}

// converter holds the streaming render state for one DocTags document.
type converter struct {
	blocks []string

	text    strings.Builder
	current string // open block tag, "" between blocks
	skip    bool   // inside page furniture

	lists []listFrame

	inTable bool
	rows    [][]string
	row     []string
	cell    strings.Builder
	inCell  bool

	inPicture  bool
	pictureCap []string

	codeLang string
}

// ToMarkdown renders one page's DocTags markup to Markdown. Blocks are
// separated by blank lines; the result carries no trailing newline.
func ToMarkdown(input string) (string, error) {
	c := &converter{}
	if err := c.run(input); err != nil {
		return "", err
	}
	return strings.Join(c.blocks, "\n\n"), nil
}

func (c *converter) run(input string) error {
	for i := 0; i < len(input); {
		if input[i] != '<' {
			j := strings.IndexByte(input[i:], '<')
			if j < 0 {
				c.emitText(input[i:])
				break
			}
			c.emitText(input[i : i+j])
			i += j
			continue
		}
		end := strings.IndexByte(input[i:], '>')
		if end < 0 {
			// Truncated generation; treat the remainder as text.
			c.emitText(input[i:])
			break
		}
		raw := input[i+1 : i+end]
		i += end + 1

		name, closing := strings.TrimPrefix(raw, "/"), strings.HasPrefix(raw, "/")
		if err := c.handleTag(strings.TrimSpace(name), closing); err != nil {
			return err
		}
	}
	c.flushBlock()
	if c.inTable {
		c.flushTable()
	}
	return nil
}

func (c *converter) handleTag(name string, closing bool) error {
	switch {
	case name == "" || name == tagDocTag || name == endOfUtterance || name == "output":
		return nil
	case strings.HasPrefix(name, "loc_"):
		return nil
	case name == tagPageHeader || name == tagPageFooter:
		if closing {
			c.skip = false
		} else {
			// Render whatever a preceding unclosed block accumulated before
			// suppressing the furniture content.
			c.flushBlock()
			c.skip = true
		}
		return nil
	}
	if c.skip {
		return nil
	}
	if c.current == tagCode && !(closing && name == tagCode) {
		// Inside code content the only meaningful tag is the language
		// marker, e.g. <_Python_>.
		if len(name) > 2 && strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
			c.codeLang = strings.ToLower(strings.Trim(name, "_"))
		}
		return nil
	}

	switch {
	case name == tagTitle, strings.HasPrefix(name, sectionHeaderPrefix):
		if closing {
			c.closeBlock(name)
		} else {
			c.openBlock(name)
		}
	case name == tagText || name == tagParagraph || name == tagCaption || name == tagFootnote ||
		name == tagFormula || name == tagCode:
		if closing {
			c.closeBlock(name)
		} else {
			c.openBlock(name)
		}
	case name == tagPicture || name == tagChart:
		if closing {
			c.endPicture()
		} else {
			c.flushBlock()
			c.inPicture = true
		}
	case name == tagOrderedList || name == tagUnorderedList:
		if closing {
			if len(c.lists) > 0 {
				c.lists = c.lists[:len(c.lists)-1]
			}
		} else {
			c.flushBlock()
			c.lists = append(c.lists, listFrame{ordered: name == tagOrderedList})
		}
	case name == tagListItem:
		if closing {
			c.closeListItem()
		} else {
			c.flushBlock()
			c.current = tagListItem
		}
	case name == tagTable:
		if closing {
			c.flushTable()
		} else {
			c.flushBlock()
			c.inTable = true
		}
	case c.inTable && (name == tagFullCell || name == tagEmptyCell || name == tagColHeader || name == tagRowHeader || name == tagSectHeader):
		c.startCell()
	case c.inTable && name == tagNewLine:
		c.endRow()
	default:
		// Unknown tag: keep inner text flowing into the current block.
	}
	return nil
}

func (c *converter) emitText(s string) {
	if c.skip {
		return
	}
	if c.inTable {
		if c.inCell {
			c.cell.WriteString(s)
		}
		return
	}
	c.text.WriteString(s)
}

func (c *converter) openBlock(tag string) {
	c.flushBlock()
	c.current = tag
}

// closeBlock tolerates mismatched closes from noisy generations by
// rendering whatever accumulated.
func (c *converter) closeBlock(string) {
	c.flushBlock()
}

// flushBlock renders the accumulated text under the currently open tag.
func (c *converter) flushBlock() {
	text := strings.TrimSpace(c.text.String())
	c.text.Reset()
	tag := c.current
	c.current = ""
	if text == "" {
		return
	}
	if c.inPicture {
		// Text inside a picture is its caption.
		c.pictureCap = append(c.pictureCap, text)
		return
	}

	switch {
	case tag == tagTitle:
		c.blocks = append(c.blocks, "# "+text)
	case strings.HasPrefix(tag, sectionHeaderPrefix):
		level := headerLevel(tag)
		c.blocks = append(c.blocks, strings.Repeat("#", level)+" "+text)
	case tag == tagFormula:
		c.blocks = append(c.blocks, "$$"+text+"$$")
	case tag == tagCode:
		lang := c.codeLang
		c.codeLang = ""
		c.blocks = append(c.blocks, "```"+lang+"\n"+text+"\n```")
	case tag == tagListItem:
		c.appendListItem(text)
	default:
		c.blocks = append(c.blocks, text)
	}
}

func (c *converter) closeListItem() {
	c.flushBlock()
}

func (c *converter) appendListItem(text string) {
	depth := len(c.lists) - 1
	if depth < 0 {
		depth = 0
	}
	indent := strings.Repeat("  ", depth)
	marker := "-"
	if len(c.lists) > 0 && c.lists[len(c.lists)-1].ordered {
		c.lists[len(c.lists)-1].counter++
		marker = fmt.Sprintf("%d.", c.lists[len(c.lists)-1].counter)
	}
	item := indent + marker + " " + text
	// Consecutive items of one list form a single block.
	if n := len(c.blocks); n > 0 && isListBlock(c.blocks[n-1]) {
		c.blocks[n-1] += "\n" + item
		return
	}
	c.blocks = append(c.blocks, item)
}

func isListBlock(block string) bool {
	trimmed := strings.TrimLeft(block, " ")
	if strings.HasPrefix(trimmed, "- ") {
		return true
	}
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(trimmed) && trimmed[i] == '.' && trimmed[i+1] == ' '
}

func (c *converter) startCell() {
	if c.inCell {
		c.row = append(c.row, strings.TrimSpace(c.cell.String()))
	}
	c.cell.Reset()
	c.inCell = true
}

func (c *converter) endRow() {
	if c.inCell {
		c.row = append(c.row, strings.TrimSpace(c.cell.String()))
		c.cell.Reset()
		c.inCell = false
	}
	if len(c.row) > 0 {
		c.rows = append(c.rows, c.row)
		c.row = nil
	}
}

// flushTable renders the collected OTSL rows as a pipe table. The first row
// acts as the header.
func (c *converter) flushTable() {
	c.endRow()
	c.inTable = false
	rows := c.rows
	c.rows = nil
	if len(rows) == 0 {
		return
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(" " + strings.ReplaceAll(cell, "|", "\\|") + " |")
		}
	}
	writeRow(rows[0])
	b.WriteString("\n|")
	for i := 0; i < width; i++ {
		b.WriteString("---|")
	}
	for _, row := range rows[1:] {
		b.WriteString("\n")
		writeRow(row)
	}
	c.blocks = append(c.blocks, b.String())
}

func (c *converter) endPicture() {
	c.flushBlock()
	c.inPicture = false
	c.blocks = append(c.blocks, "<!-- image -->")
	for _, cap := range c.pictureCap {
		c.blocks = append(c.blocks, cap)
	}
	c.pictureCap = nil
}

func headerLevel(tag string) int {
	suffix := strings.TrimPrefix(tag, sectionHeaderPrefix)
	level := 0
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 2
		}
		level = level*10 + int(r-'0')
	}
	// Level 1 section headers sit under the document title.
	level++
	if level < 2 {
		level = 2
	}
	if level > 6 {
		level = 6
	}
	return level
}
