package toc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperdocs/hyperdocs/internal/model"
)

// ParseFragment recovers an outline from HTML produced by Render. Depth is
// the nesting level starting at 1, since heading levels are not part of the
// fragment.
func ParseFragment(fragment string) ([]*model.Heading, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse toc fragment: %w", err)
	}
	top := doc.Find("body > ul").First()
	if top.Length() == 0 {
		return nil, fmt.Errorf("parse toc fragment: no list found")
	}
	return parseList(top, 1), nil
}

func parseList(ul *goquery.Selection, depth int) []*model.Heading {
	var out []*model.Heading
	ul.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		a := li.ChildrenFiltered("a").First()
		href, _ := a.Attr("href")
		h := &model.Heading{
			Text:   a.Text(),
			Depth:  depth,
			Anchor: strings.TrimPrefix(href, "#"),
		}
		li.ChildrenFiltered("ul").Each(func(_ int, sub *goquery.Selection) {
			h.Children = append(h.Children, parseList(sub, depth+1)...)
		})
		out = append(out, h)
	})
	return out
}
