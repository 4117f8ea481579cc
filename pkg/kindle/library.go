package kindle

import (
	"context"
	"fmt"
	"net/url"
)

// libraryPath is the catalog search endpoint.
const libraryPath = "/kindle-library/search"

// libraryResponse is a partial decode of a catalog page. Absent fields
// mean "unavailable", so optional ones are pointers.
type libraryResponse struct {
	ItemsList       []libraryItem `json:"itemsList"`
	PaginationToken *string       `json:"paginationToken"`
}

// libraryItem is a single raw catalog entry.
type libraryItem struct {
	ASIN       string   `json:"asin"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	ProductURL string   `json:"productUrl"`
}

// FetchRecent implements Client.FetchRecent.
func (c *client) FetchRecent(ctx context.Context) ([]Book, error) {
	page, _, err := c.fetchPage(ctx, "")
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched recent library window", "books", len(page))
	return page, nil
}

// FetchAll implements Client.FetchAll.
func (c *client) FetchAll(ctx context.Context) ([]Book, error) {
	var books []Book
	token := ""

	for pageNum := 1; ; pageNum++ {
		if pageNum > c.config.MaxLibraryPages {
			// Hitting the cap is success with a truncated catalog, not
			// a failure.
			c.logger.Warn("stopping catalog pagination at page cap",
				"pages", c.config.MaxLibraryPages,
				"books", len(books),
				"reason", ErrPageCapReached)
			return books, nil
		}

		page, nextToken, err := c.fetchPage(ctx, token)
		if err != nil {
			// No partial results: one bad page aborts the operation.
			return nil, fmt.Errorf("library page %d: %w", pageNum, err)
		}

		books = append(books, page...)

		if nextToken == "" {
			break
		}
		token = nextToken
	}

	c.logger.Debug("fetched full library", "books", len(books))
	return books, nil
}

// fetchPage retrieves one catalog page and returns its books and the
// continuation token ("" when upstream returned none).
func (c *client) fetchPage(ctx context.Context, paginationToken string) ([]Book, string, error) {
	q := url.Values{}
	q.Set("query", "")
	q.Set("libraryType", "BOOKS")
	q.Set("sortType", "recency")
	q.Set("querySize", fmt.Sprintf("%d", c.config.RecentPageSize))
	if paginationToken != "" {
		q.Set("paginationToken", paginationToken)
	}

	endpoint := c.config.BaseURL + libraryPath + "?" + q.Encode()

	body, err := c.get(ctx, endpoint, c.config.RequestTimeout, nil)
	if err != nil {
		return nil, "", err
	}

	var resp libraryResponse
	if err := decodeJSON(libraryPath, body, &resp); err != nil {
		return nil, "", err
	}

	books := make([]Book, 0, len(resp.ItemsList))
	for _, item := range resp.ItemsList {
		if item.ASIN == "" {
			// Entries without a catalog identifier cannot be tracked.
			c.logger.Debug("skipping library item without asin", "title", item.Title)
			continue
		}
		books = append(books, Book{
			ASIN:     item.ASIN,
			Title:    item.Title,
			Authors:  item.Authors,
			CoverURL: item.ProductURL,
		})
	}

	token := ""
	if resp.PaginationToken != nil {
		token = *resp.PaginationToken
	}

	return books, token, nil
}
