package nvm

import (
	"errors"
	"testing"
)

func TestPagesLayout(t *testing.T) {
	d, _, _ := newTestDevice(t, testConfig())

	layout, ok := d.PagesLayout()
	if !ok {
		t.Fatal("PagesLayout() ok = false; want true")
	}
	if len(layout) != 1 || layout[0] != (PageLayout{PageCount: 32, PageSize: 8192}) {
		t.Fatalf("PagesLayout() = %+v; want [{32 8192}]", layout)
	}
	if n := d.PageCount(); n != 32 {
		t.Fatalf("PageCount() = %d; want 32", n)
	}
}

func TestPageInfo(t *testing.T) {
	d, _, _ := newTestDevice(t, testConfig())

	tests := []struct {
		off  int64
		want PageInfo
	}{
		{0, PageInfo{0, 0, 8192}},
		{8191, PageInfo{0, 0, 8192}},
		{8192, PageInfo{1, 8192, 8192}},
		{262143, PageInfo{31, 253952, 8192}},
	}
	for _, tt := range tests {
		got, err := d.PageInfoByOffset(tt.off)
		if err != nil {
			t.Fatalf("PageInfoByOffset(%d) err = %v", tt.off, err)
		}
		if got != tt.want {
			t.Fatalf("PageInfoByOffset(%d) = %+v; want %+v", tt.off, got, tt.want)
		}
		byIndex, err := d.PageInfoByIndex(tt.want.Index)
		if err != nil || byIndex != tt.want {
			t.Fatalf("PageInfoByIndex(%d) = %+v, %v; want %+v", tt.want.Index, byIndex, err, tt.want)
		}
	}

	for _, off := range []int64{-1, 262144} {
		if _, err := d.PageInfoByOffset(off); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("PageInfoByOffset(%d) err = %v; want ErrInvalidRange", off, err)
		}
	}
	for _, i := range []int64{-1, 32} {
		if _, err := d.PageInfoByIndex(i); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("PageInfoByIndex(%d) err = %v; want ErrInvalidRange", i, err)
		}
	}
}

func TestForEachPage(t *testing.T) {
	d, _, _ := newTestDevice(t, testConfig())

	var next int64
	d.ForEachPage(func(p PageInfo) bool {
		if p.Index != next || p.StartOffset != next*8192 {
			t.Fatalf("page %d = %+v; out of order", next, p)
		}
		next++
		return true
	})
	if next != 32 {
		t.Fatalf("ForEachPage visited %d pages; want 32", next)
	}

	var seen int
	d.ForEachPage(func(PageInfo) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Fatalf("ForEachPage after stop visited %d pages; want 3", seen)
	}
}

func TestPageLayoutDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.PageLayout = false
	d, _, _ := newTestDevice(t, cfg)

	if _, ok := d.PagesLayout(); ok {
		t.Fatal("PagesLayout() ok = true with layout disabled")
	}
	if n := d.PageCount(); n != 0 {
		t.Fatalf("PageCount() = %d; want 0", n)
	}
	if _, err := d.PageInfoByOffset(0); !errors.Is(err, ErrNoPageLayout) {
		t.Fatalf("PageInfoByOffset() err = %v; want ErrNoPageLayout", err)
	}
	if _, err := d.PageInfoByIndex(0); !errors.Is(err, ErrNoPageLayout) {
		t.Fatalf("PageInfoByIndex() err = %v; want ErrNoPageLayout", err)
	}
}
