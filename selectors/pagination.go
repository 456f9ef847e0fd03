package selectors

import "gorm.io/gorm"

// MaxPageSize caps every list endpoint regardless of what the client
// asks for.
const MaxPageSize = 20

type PageInfo struct {
	Page         int   `json:"page"`
	PageSize     int   `json:"page_size"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	NextPage     *int  `json:"next_page"`
	PreviousPage *int  `json:"previous_page"`
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return MaxPageSize
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

func buildPageInfo(page, pageSize int, totalItems int64) PageInfo {
	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	info := PageInfo{
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	if info.HasNext {
		next := page + 1
		info.NextPage = &next
	}
	if info.HasPrevious {
		prev := page - 1
		info.PreviousPage = &prev
	}
	return info
}

// paginate counts the scoped query, clamps the page into range and
// fetches one page into dest. Out-of-range pages land on the last page
// rather than erroring.
func paginate(query *gorm.DB, page, pageSize int, dest interface{}) (PageInfo, error) {
	pageSize = clampPageSize(pageSize)

	// Session makes the built-up conditions reusable across the count
	// and the fetch.
	tx := query.Session(&gorm.Session{})

	var totalItems int64
	if err := tx.Count(&totalItems).Error; err != nil {
		return PageInfo{}, err
	}

	info := buildPageInfo(page, pageSize, totalItems)

	offset := (info.Page - 1) * pageSize
	if err := tx.Offset(offset).Limit(pageSize).Find(dest).Error; err != nil {
		return PageInfo{}, err
	}
	return info, nil
}

// emptyPage is what fail-closed role scoping returns: no rows, sane
// metadata.
func emptyPage(page, pageSize int) PageInfo {
	return buildPageInfo(page, clampPageSize(pageSize), 0)
}
