package workitem

// ListOptions filters and pages work item listings. Results are ordered
// newest first.
type ListOptions struct {
	Status *Status
	Limit  int
	Offset int
}

// Page is one page of a work item listing.
type Page struct {
	Items  []WorkItem
	Total  int
	Offset int
	Limit  int
}

// HasNext reports whether more items follow this page.
func (p Page) HasNext() bool {
	return p.Offset+len(p.Items) < p.Total
}

// HasPrev reports whether items precede this page.
func (p Page) HasPrev() bool {
	return p.Offset > 0
}
