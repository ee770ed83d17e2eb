// internal/panel/parser.go
package panel

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Tanxunze/7inet-bot/internal/models"
)

// Parsing is best-effort: a row or label that does not match the
// expected shape is skipped, never a failure. Only the outer container
// matters, and for the instance list its absence is a distinct "no data"
// signal rather than a parse error.

const (
	minListColumns = 8 // instance list rows with fewer cells are skipped
	minPortColumns = 4 // port rule rows with fewer cells are skipped
)

// ParseInstanceList extracts instance summaries from the instance
// manager page. Returns ErrNoInstanceTable when the document has no
// table; an empty table yields an empty slice and no error.
func ParseInstanceList(r io.Reader) ([]models.InstanceSummary, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoInstanceTable
	}

	instances := []models.InstanceSummary{}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		cols := row.Find("td")
		if cols.Length() < minListColumns {
			return
		}
		instances = append(instances, models.InstanceSummary{
			ID:        text(cols.Eq(0)),
			Name:      text(cols.Eq(1).Find("span")),
			Status:    text(cols.Eq(2).Find("font")),
			StartTime: text(cols.Eq(3)),
			EndTime:   text(cols.Eq(4)),
			Username:  text(cols.Eq(5).Find("span")),
			Password:  text(cols.Eq(6).Find("span")),
		})
	})
	return instances, nil
}

// ParseInstanceDetail extracts basic info, live system stats and port
// forwarding rules from the instance control page. Sections absent from
// the document come back empty.
func ParseInstanceDetail(r io.Reader) (*models.InstanceDetail, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	detail := &models.InstanceDetail{
		BasicInfo:  map[string]string{},
		SystemInfo: map[string]string{},
		Ports:      []models.PortForward{},
	}

	// Basic information: <el-descriptions-item label="..."> elements.
	doc.Find("el-descriptions-item").Each(func(_ int, item *goquery.Selection) {
		label := strings.TrimSpace(item.AttrOr("label", ""))
		value := text(item)
		if label != "" && value != "" {
			detail.BasicInfo[label] = value
		}
	})

	// System status: the box-card block. Running state sits in the first
	// <font>; the rest follows a label/value line protocol.
	card := doc.Find("el-card.box-card").First()
	if card.Length() > 0 {
		if font := card.Find("font").First(); font.Length() > 0 {
			detail.SystemInfo["运行状态"] = text(font)
		}

		lines := textLines(card)
		for i, line := range lines {
			switch {
			case line == "内网IP:" && i+1 < len(lines):
				detail.SystemInfo["内网IP"] = lines[i+1]
			case strings.HasPrefix(line, "用户名:"):
				detail.SystemInfo["用户名"] = strings.TrimSpace(strings.TrimPrefix(line, "用户名:"))
			case line == "内存使用:" && i+2 < len(lines):
				detail.SystemInfo["内存使用"] = lines[i+1] + " " + lines[i+2]
			case line == "硬盘使用:" && i+2 < len(lines):
				detail.SystemInfo["硬盘使用"] = lines[i+1] + " " + lines[i+2]
			case strings.HasPrefix(line, "流量使用:"):
				detail.SystemInfo["流量使用"] = strings.TrimSpace(strings.TrimPrefix(line, "流量使用:"))
			}
		}
	}

	// Port forwarding rules: table inside div#listtable.
	doc.Find("div#listtable.table-responsive").First().Find("table").First().
		Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return // header row
			}
			cols := row.Find("td")
			if cols.Length() < minPortColumns {
				return
			}
			detail.Ports = append(detail.Ports, models.PortForward{
				ID:           text(cols.Eq(0)),
				Protocol:     text(cols.Eq(1)),
				InternalAddr: text(cols.Eq(2)),
				ExternalAddr: text(cols.Eq(3)),
			})
		})

	return detail, nil
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// textLines collects the non-empty text nodes under a selection as
// separate trimmed lines, preserving element boundaries that a plain
// .Text() call would merge.
func textLines(s *goquery.Selection) []string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return lines
}
