package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{name: "defaults", in: PageRequest{}, want: PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{name: "kept", in: PageRequest{Page: 3, PageSize: 50}, want: PageRequest{Page: 3, PageSize: 50}},
		{name: "capped", in: PageRequest{Page: 1, PageSize: 500}, want: PageRequest{Page: 1, PageSize: MaxPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]int{1, 2}, PageRequest{Page: 2, PageSize: 2}, 5)
	if resp.TotalPages != 3 || !resp.HasNext {
		t.Errorf("expected 3 pages with a next page, got %+v", resp)
	}

	last := NewPageResponse[int](nil, PageRequest{Page: 3, PageSize: 2}, 5)
	if last.HasNext {
		t.Error("last page should not report a next page")
	}
	if last.Data == nil || len(last.Data) != 0 {
		t.Errorf("expected empty data, got %v", last.Data)
	}

	empty := NewPageResponse([]int{}, PageRequest{}, 0)
	if empty.TotalPages != 0 || empty.Page != 1 || empty.PageSize != DefaultPageSize {
		t.Errorf("unexpected empty response %+v", empty)
	}
}

func TestOffset(t *testing.T) {
	if got := (PageRequest{Page: 4, PageSize: 25}).Offset(); got != 75 {
		t.Errorf("Offset() = %d, want 75", got)
	}
}
