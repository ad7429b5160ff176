package nvm

import "fmt"

// PageLayout is a run of PageCount equally sized pages.
type PageLayout struct {
	PageCount int64
	PageSize  int64
}

// PageInfo locates one page within the region.
type PageInfo struct {
	Index       int64
	StartOffset int64
	Size        int64
}

// PagesLayout returns the page runs of the region. ok is false if the page
// layout capability is disabled.
//
// The returned slice must not be modified.
func (d *Device) PagesLayout() (layout []PageLayout, ok bool) {
	if d.pages == nil {
		return nil, false
	}
	return d.pages, true
}

// PageCount returns the total number of pages, or 0 without a page layout.
func (d *Device) PageCount() int64 {
	var n int64
	for _, run := range d.pages {
		n += run.PageCount
	}
	return n
}

// PageInfoByOffset returns the page containing off.
func (d *Device) PageInfoByOffset(off int64) (PageInfo, error) {
	if d.pages == nil {
		return PageInfo{}, ErrNoPageLayout
	}
	if off < 0 || off >= d.cfg.Size {
		return PageInfo{}, fmt.Errorf("%w: offset %d outside region of %d bytes", ErrInvalidRange, off, d.cfg.Size)
	}

	var index, start int64
	for _, run := range d.pages {
		runSize := run.PageCount * run.PageSize
		if off < start+runSize {
			i := (off - start) / run.PageSize
			return PageInfo{Index: index + i, StartOffset: start + i*run.PageSize, Size: run.PageSize}, nil
		}
		index += run.PageCount
		start += runSize
	}
	return PageInfo{}, fmt.Errorf("%w: offset %d not covered by page layout", ErrInvalidRange, off)
}

// PageInfoByIndex returns page i.
func (d *Device) PageInfoByIndex(i int64) (PageInfo, error) {
	if d.pages == nil {
		return PageInfo{}, ErrNoPageLayout
	}
	if i < 0 {
		return PageInfo{}, fmt.Errorf("%w: page %d", ErrInvalidRange, i)
	}

	var index, start int64
	for _, run := range d.pages {
		if i < index+run.PageCount {
			return PageInfo{Index: i, StartOffset: start + (i-index)*run.PageSize, Size: run.PageSize}, nil
		}
		index += run.PageCount
		start += run.PageCount * run.PageSize
	}
	return PageInfo{}, fmt.Errorf("%w: page %d of %d", ErrInvalidRange, i, index)
}

// ForEachPage calls fn for every page in order until fn returns false.
func (d *Device) ForEachPage(fn func(PageInfo) bool) {
	var index, start int64
	for _, run := range d.pages {
		for j := int64(0); j < run.PageCount; j++ {
			if !fn(PageInfo{Index: index, StartOffset: start, Size: run.PageSize}) {
				return
			}
			index++
			start += run.PageSize
		}
	}
}
