package pagination

// Link is one rendered slot of a pager. Ellipsis links have no Href.
type Link struct {
	Label    string
	Href     string
	Current  bool
	Ellipsis bool
}

// Pager is the template view of a page window with previous and next links.
// PrevHref and NextHref are empty on the first and last page.
type Pager struct {
	CurrentPage int
	TotalPages  int
	Links       []Link
	PrevHref    string
	NextHref    string
}

// Build clamps current into range, computes its Window and resolves every
// page entry to a URL with href.
func Build(current, total int, href func(page int) string) Pager {
	total = max(total, 1)
	current = Clamp(current, total)

	window := Window(current, total)
	links := make([]Link, len(window))
	for i, e := range window {
		if e.IsEllipsis() {
			links[i] = Link{Label: e.String(), Ellipsis: true}
			continue
		}
		links[i] = Link{
			Label:   e.String(),
			Href:    href(e.Page()),
			Current: e.Page() == current,
		}
	}

	p := Pager{
		CurrentPage: current,
		TotalPages:  total,
		Links:       links,
	}
	if current > 1 {
		p.PrevHref = href(current - 1)
	}
	if current < total {
		p.NextHref = href(current + 1)
	}
	return p
}

// Multiple reports whether there is more than one page to navigate.
func (p Pager) Multiple() bool {
	return p.TotalPages > 1
}
