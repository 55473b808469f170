package category

// CategoryItem is one storefront filter with the number of active products in it.
type CategoryItem struct {
	Slug         string `json:"slug"`
	ProductCount int    `json:"productCount"`
}
