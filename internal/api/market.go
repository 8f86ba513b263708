package api

import (
	"context"
	"net/http"
	"net/url"
)

// Product represents a market commodity listing
type Product struct {
	ID           string  `json:"id"`
	ItemName     string  `json:"item_name"`
	MarketName   string  `json:"market_name"`
	Category     string  `json:"category,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	PricePerUnit float64 `json:"price_per_unit"`
	Unit         string  `json:"unit"`
	Date         string  `json:"date"`
	VendorEmail  string  `json:"vendor_email"`
	Status       string  `json:"status"`
}

// AddProductRequest represents a vendor's product submission
type AddProductRequest struct {
	ItemName     string  `json:"item_name"`
	MarketName   string  `json:"market_name"`
	Category     string  `json:"category,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	PricePerUnit float64 `json:"price_per_unit"`
	Unit         string  `json:"unit"`
	Date         string  `json:"date"`
}

// Products returns all approved product listings
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.doJSON(ctx, http.MethodGet, "/product", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product returns a single product by ID
func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := c.doJSON(ctx, http.MethodGet, "/product/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AddProduct submits a new product listing
func (c *Client) AddProduct(ctx context.Context, req AddProductRequest) (*Product, error) {
	var product Product
	if err := c.doJSON(ctx, http.MethodPost, "/productAdd", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Offer represents a discounted price offer on a product
type Offer struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	OfferPrice  float64 `json:"offer_price"`
	VendorEmail string  `json:"vendor_email"`
	Status      string  `json:"status"`
}

// AddOfferRequest represents a vendor's offer submission
type AddOfferRequest struct {
	ProductID  string  `json:"product_id"`
	OfferPrice float64 `json:"offer_price"`
}

// Offers returns all offers
func (c *Client) Offers(ctx context.Context) ([]Offer, error) {
	var offers []Offer
	if err := c.doJSON(ctx, http.MethodGet, "/offers", nil, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// AddOffer submits a new offer
func (c *Client) AddOffer(ctx context.Context, req AddOfferRequest) (*Offer, error) {
	var offer Offer
	if err := c.doJSON(ctx, http.MethodPost, "/offers", req, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// Advertisement represents a vendor advertisement
type Advertisement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	VendorEmail string `json:"vendor_email"`
	Status      string `json:"status"`
}

// AddAdvertisementRequest represents a vendor's advertisement submission
type AddAdvertisementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Advertisements returns all advertisements
func (c *Client) Advertisements(ctx context.Context) ([]Advertisement, error) {
	var ads []Advertisement
	if err := c.doJSON(ctx, http.MethodGet, "/advertisements", nil, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}

// AddAdvertisement submits a new advertisement
func (c *Client) AddAdvertisement(ctx context.Context, req AddAdvertisementRequest) (*Advertisement, error) {
	var ad Advertisement
	if err := c.doJSON(ctx, http.MethodPost, "/advertisements", req, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// Review represents a user review on a product
type Review struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AddReviewRequest represents a review submission
type AddReviewRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// Reviews returns the reviews for a product
func (c *Client) Reviews(ctx context.Context, productID string) ([]Review, error) {
	var reviews []Review
	path := "/reviews?product=" + url.QueryEscape(productID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddReview submits a review for a product
func (c *Client) AddReview(ctx context.Context, req AddReviewRequest) (*Review, error) {
	var review Review
	if err := c.doJSON(ctx, http.MethodPost, "/reviews", req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// WatchItem represents a product on the user's watchlist
type WatchItem struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ItemName     string  `json:"item_name"`
	MarketName   string  `json:"market_name"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// Watchlist returns the current user's watchlist with live prices
func (c *Client) Watchlist(ctx context.Context) ([]WatchItem, error) {
	var items []WatchItem
	if err := c.doJSON(ctx, http.MethodGet, "/watchlist", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToWatchlist puts a product on the current user's watchlist
func (c *Client) AddToWatchlist(ctx context.Context, productID string) (*WatchItem, error) {
	req := struct {
		ProductID string `json:"product_id"`
	}{ProductID: productID}

	var item WatchItem
	if err := c.doJSON(ctx, http.MethodPost, "/watchlist", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveFromWatchlist removes a watchlist entry
func (c *Client) RemoveFromWatchlist(ctx context.Context, itemID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/watchlist/"+url.PathEscape(itemID), nil, nil)
}

// PaymentIntent is the payment processor handle returned by the API
type PaymentIntent struct {
	ClientSecret string `json:"client_secret"`
}

// CreatePaymentIntent asks the API to open a payment with the processor.
// Amount is in the smallest currency unit.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64) (*PaymentIntent, error) {
	req := struct {
		Amount int64 `json:"amount"`
	}{Amount: amount}

	var intent PaymentIntent
	if err := c.doJSON(ctx, http.MethodPost, "/create-payment-intent", req, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Payment represents a completed payment record
type Payment struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	ItemName      string  `json:"item_name,omitempty"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
	UserEmail     string  `json:"user_email"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// RecordPaymentRequest represents a confirmed payment to record
type RecordPaymentRequest struct {
	ProductID     string  `json:"product_id"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
}

// Payments returns the current user's payment history
func (c *Client) Payments(ctx context.Context) ([]Payment, error) {
	var payments []Payment
	if err := c.doJSON(ctx, http.MethodGet, "/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// RecordPayment stores a confirmed payment
func (c *Client) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*Payment, error) {
	var payment Payment
	if err := c.doJSON(ctx, http.MethodPost, "/payments", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// User represents a marketplace account as the admin endpoints expose it
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Users returns all accounts (admin only)
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserRole changes an account's role (admin only)
func (c *Client) SetUserRole(ctx context.Context, email, role string) error {
	req := struct {
		Role string `json:"role"`
	}{Role: role}
	return c.doJSON(ctx, http.MethodPatch, "/users/role/"+url.PathEscape(email), req, nil)
}
