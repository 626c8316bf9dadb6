package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Auth

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Orders

func (c *Client) CreateOrder(ctx context.Context, req *OrderCreateRequest) (*OrderView, error) {
	var out OrderView
	if err := c.do(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddItems(ctx context.Context, orderID int64, items []ItemRequest) (*OrderView, error) {
	body := map[string]interface{}{"items": items}
	var out OrderView
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/items", orderID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*OrderView, error) {
	var out OrderView
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderByTrackingID(ctx context.Context, trackingID string) (*OrderView, error) {
	var out OrderView
	path := "/orders/track/" + url.PathEscape(trackingID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActiveOrderForTable returns nil without error when the table has no
// open tab.
func (c *Client) ActiveOrderForTable(ctx context.Context, tableID int64) (*OrderView, error) {
	out := &OrderView{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/table/%d/active", tableID), nil, out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status, cancellationReason string) (*OrderView, error) {
	body := map[string]string{"status": status}
	if cancellationReason != "" {
		body["cancellation_reason"] = cancellationReason
	}
	var out OrderView
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/status", orderID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AbandonOrder reports a payment attempt that ended without a charge.
// It goes through the public tracking-id route, so the customer device
// needs no staff credential to close its own tab.
func (c *Client) AbandonOrder(ctx context.Context, trackingID, status, cancellationReason string) (*OrderView, error) {
	body := map[string]string{"status": status}
	if cancellationReason != "" {
		body["cancellation_reason"] = cancellationReason
	}
	var out OrderView
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/track/%s/abandon", url.PathEscape(trackingID)), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestBill(ctx context.Context, orderID int64) (*OrderView, error) {
	var out OrderView
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/request-bill", orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Kitchen and service

func (c *Client) KitchenQueue(ctx context.Context) ([]*OrderItem, error) {
	var out []*OrderItem
	if err := c.do(ctx, http.MethodGet, "/orders/kitchen", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateItemStatus(ctx context.Context, itemID int64, itemStatus string) (*OrderItem, error) {
	body := map[string]string{"item_status": itemStatus}
	var out OrderItem
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/items/%d/status", itemID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ServiceTasks(ctx context.Context) (*ServiceTasks, error) {
	var out ServiceTasks
	if err := c.do(ctx, http.MethodGet, "/service/tasks", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tables

func (c *Client) TableByQR(ctx context.Context, qrCode string) (*Table, error) {
	var out Table
	path := "/tables/qr/" + url.PathEscape(qrCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTables(ctx context.Context) ([]*Table, error) {
	var out []*Table
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RequestAssistance(ctx context.Context, tableID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%d/assistance", tableID), nil, nil)
}

func (c *Client) ClearAssistance(ctx context.Context, tableID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tables/%d/assistance", tableID), nil, nil)
}

// Menu

func (c *Client) Menu(ctx context.Context) ([]*Dish, error) {
	var out []*Dish
	if err := c.do(ctx, http.MethodGet, "/menu/dishes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Payments

func (c *Client) CreatePaymentIntent(ctx context.Context, orderID int64) (*PaymentIntent, error) {
	body := map[string]int64{"order_id": orderID}
	var out PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payments/orders", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(ctx, http.MethodPost, "/payments/verify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
