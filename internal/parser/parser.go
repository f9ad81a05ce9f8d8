package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/stroydoc/bom-tracker/internal/entity"
)

// Structural markers of the markdown convention the OCR stage emits.
var (
	rePageMarker  = regexp.MustCompile(`^##\s+СТРАНИЦА\s+(\d+)`)
	reBlockMarker = regexp.MustCompile(`^###\s+BLOCK\s+\[(TEXT|IMAGE)\]:\s*([A-Z0-9]+-[A-Z0-9]+-[A-Z0-9]+)`)
	reDocCode     = regexp.MustCompile(`\d+/\d+-[А-ЯA-Z]+-[А-ЯA-Z0-9]+`)
	reErrorMark   = regexp.MustCompile(`\[Ошибка[^\]]*\]`)
	reHeading     = regexp.MustCompile(`^(#{4,6})\s+(.+)$`)
	reTableRow    = regexp.MustCompile(`^\s*\|.*\|\s*$`)
)

// FallbackBlockID identifies the synthetic block produced when the input has
// no structural markers at all.
const FallbackBlockID = "RAW-000-000"

const (
	labelGenerated  = "Сгенерировано:"
	labelStamp      = "**Штамп:**"
	labelSheet      = "**Лист:**"
	labelSheetName  = "**Наименование листа:**"
	headerScanLines = 10
)

// Parser converts raw markdown text into a ParsedDocument. Parsing is total:
// malformed input degrades to best-effort output, never to an error.
type Parser struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{log: log}
}

// Parse scans the text once, left to right, tracking an open page and an open
// block. Blocks appearing before any `## СТРАНИЦА` marker land on a lazily
// created page 1. Zero pages triggers the single-block fallback document.
func (p *Parser) Parse(text string) *entity.ParsedDocument {
	lines := strings.Split(text, "\n")

	doc := &entity.ParsedDocument{}
	p.scanHeader(lines, doc)

	var (
		pages      []entity.ParsedPage
		curPage    *entity.ParsedPage
		inMeta     bool
		blockOpen  bool
		blockKind  entity.BlockKind
		blockUID   string
		blockLines []string
	)

	flushBlock := func() {
		if !blockOpen {
			return
		}
		curPage.Blocks = append(curPage.Blocks, finalizeBlock(blockUID, blockKind, blockLines))
		blockOpen = false
		blockLines = nil
	}
	flushPage := func() {
		if curPage == nil {
			return
		}
		pages = append(pages, *curPage)
		curPage = nil
	}

	for _, line := range lines {
		if m := rePageMarker.FindStringSubmatch(line); m != nil {
			flushBlock()
			flushPage()
			// plain Atoi, no monotonicity or uniqueness checks: duplicate and
			// out-of-order page numbers are accepted as given
			n, _ := strconv.Atoi(m[1])
			curPage = &entity.ParsedPage{Number: n}
			inMeta = true
			continue
		}
		if m := reBlockMarker.FindStringSubmatch(line); m != nil {
			flushBlock()
			inMeta = false
			if curPage == nil {
				// documents may declare blocks before any page marker
				curPage = &entity.ParsedPage{Number: 1}
			}
			blockOpen = true
			blockKind = entity.BlockKind(m[1])
			blockUID = m[2]
			continue
		}
		if blockOpen {
			blockLines = append(blockLines, line)
			continue
		}
		if inMeta && curPage != nil {
			if v, ok := labelValue(line, labelSheet); ok {
				curPage.SheetLabel = &v
				continue
			}
			if v, ok := labelValue(line, labelSheetName); ok {
				curPage.SheetName = &v
				continue
			}
			// blank or unrecognized lines are tolerated; the next marker
			// forces the state transition
		}
	}
	flushBlock()
	flushPage()

	if len(pages) == 0 {
		p.log.Debug("parser.fallback", "reason", "no structural markers", "text_len", len(text))
		pages = []entity.ParsedPage{fallbackPage(text)}
	}
	doc.Pages = pages

	for _, pg := range doc.Pages {
		doc.TotalBlocks += len(pg.Blocks)
		for _, b := range pg.Blocks {
			if b.HasError {
				doc.ErrorBlocks++
			}
		}
	}
	p.log.Debug("parser.done",
		"title", doc.Title,
		"pages", len(doc.Pages),
		"total_blocks", doc.TotalBlocks,
		"error_blocks", doc.ErrorBlocks,
	)
	return doc
}

// scanHeader pulls the document title off the first line and looks for the
// generated/stamp labels within the next few lines. First match wins for each.
func (p *Parser) scanHeader(lines []string, doc *entity.ParsedDocument) {
	if len(lines) == 0 {
		return
	}
	first := strings.TrimSpace(lines[0])
	if strings.HasPrefix(first, "# ") {
		doc.Title = strings.TrimSpace(strings.TrimPrefix(first, "# "))
		if code := reDocCode.FindString(doc.Title); code != "" {
			doc.DocCode = &code
		}
	}
	limit := len(lines)
	if limit > headerScanLines {
		limit = headerScanLines
	}
	for _, line := range lines[1:limit] {
		if doc.GeneratedAt == nil {
			if v, ok := labelValue(line, labelGenerated); ok {
				doc.GeneratedAt = &v
				continue
			}
		}
		if doc.Stamp == nil {
			if v, ok := labelValue(line, labelStamp); ok {
				doc.Stamp = &v
			}
		}
	}
}

// finalizeBlock builds a ParsedBlock from the raw lines accumulated between
// markers. The block-level section title takes the FIRST heading only; the
// per-table section context (see tables.go) tracks the most recent one.
func finalizeBlock(uid string, kind entity.BlockKind, lines []string) entity.ParsedBlock {
	content := strings.TrimSpace(strings.Join(lines, "\n"))
	b := entity.ParsedBlock{UID: uid, Kind: kind, Content: content}

	if m := reErrorMark.FindString(content); m != "" {
		b.HasError = true
		b.ErrorText = &m
	}
	for _, line := range lines {
		if m := reHeading.FindStringSubmatch(line); m != nil {
			if title := strings.TrimSpace(m[2]); title != "" {
				b.SectionTitle = &title
				break
			}
		}
	}
	for _, line := range lines {
		if reTableRow.MatchString(line) {
			b.HasTable = true
			break
		}
	}
	if b.HasTable && kind == entity.BlockText {
		b.Tables = extractTables(lines)
	}
	return b
}

// fallbackPage synthesizes the single page/block document returned when no
// page or block markers were found. Detection patterns still run over the
// whole text, but no tables are extracted.
func fallbackPage(text string) entity.ParsedPage {
	b := entity.ParsedBlock{
		UID:     FallbackBlockID,
		Kind:    entity.BlockText,
		Content: text,
	}
	if m := reErrorMark.FindString(text); m != "" {
		b.HasError = true
		b.ErrorText = &m
	}
	for _, line := range strings.Split(text, "\n") {
		if reTableRow.MatchString(line) {
			b.HasTable = true
			break
		}
	}
	return entity.ParsedPage{Number: 1, Blocks: []entity.ParsedBlock{b}}
}

func labelValue(line, label string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, label) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(t, label)), true
}
