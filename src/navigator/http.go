package navigator

import (
	"context"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/interfaces"
)

// HTTPNavigator reads pages with plain HTTP. It sees only server-rendered
// markup, which is enough for the MSE listing table.
type HTTPNavigator struct {
	Network interfaces.INetworkManager
	Timeout time.Duration
}

func NewHTTPNavigator(network interfaces.INetworkManager, timeout time.Duration) *HTTPNavigator {
	return &HTTPNavigator{Network: network, Timeout: timeout}
}

// -----------------------------------------------------------------------------

func (n *HTTPNavigator) fetch(ctx context.Context, url string) (string, error) {
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	body, err := n.Network.Get(ctx, url, nil)
	if err != nil {
		return "", helpers.NewNavigationError(url, err)
	}
	return string(body), nil
}

// -----------------------------------------------------------------------------

func (n *HTTPNavigator) FetchRawRows(ctx context.Context, url string, selector string) ([][]string, error) {
	html, err := n.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	rows, err := ExtractRows(html, selector)
	if err != nil {
		return nil, helpers.NewNavigationError(url, err)
	}
	return rows, nil
}

// -----------------------------------------------------------------------------

func (n *HTTPNavigator) FetchPageText(ctx context.Context, url string) (string, error) {
	html, err := n.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	text, err := ExtractText(html)
	if err != nil {
		return "", helpers.NewNavigationError(url, err)
	}
	return text, nil
}

// -----------------------------------------------------------------------------

func (n *HTTPNavigator) Close() error { return nil }
