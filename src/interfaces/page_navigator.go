package interfaces

import "context"

// -----------------------------------------------------------------------------
// IPageNavigator isolates all contact with the exchange's HTML pages.
// Everything it returns is untrusted text.
// -----------------------------------------------------------------------------

type IPageNavigator interface {

	// FetchRawRows returns the cell texts of every data row under selector.
	FetchRawRows(ctx context.Context, url string, selector string) ([][]string, error)

	// -----------------------------------------------------------------------------

	// FetchPageText returns the visible text of the page body.
	FetchPageText(ctx context.Context, url string) (string, error)

	// -----------------------------------------------------------------------------

	// Close releases any browser or connection resources.
	Close() error
}
