package stubserver

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricewatch-dev/pricewatch/internal/models"
)

// AddProductRequest represents a vendor's product submission
type AddProductRequest struct {
	ItemName     string  `json:"item_name" binding:"required"`
	MarketName   string  `json:"market_name" binding:"required"`
	Category     string  `json:"category"`
	ImageURL     string  `json:"image_url"`
	PricePerUnit float64 `json:"price_per_unit" binding:"required,gt=0"`
	Unit         string  `json:"unit" binding:"required"`
	Date         string  `json:"date" binding:"required"`
}

func (s *Server) listProducts(c *gin.Context) {
	var products []models.Product
	if err := s.db.Where("status = ?", models.StatusApproved).Order("created_at desc").Find(&products).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	var product models.Product
	if err := s.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) addProduct(c *gin.Context) {
	session, _ := GetSession(c)

	var req AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &models.Product{
		ItemName:     req.ItemName,
		MarketName:   req.MarketName,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		PricePerUnit: req.PricePerUnit,
		Unit:         req.Unit,
		Date:         req.Date,
		VendorEmail:  session.Email,
		Status:       models.StatusApproved,
	}
	if err := s.db.Create(product).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// CreateOfferRequest represents a vendor's offer submission
type CreateOfferRequest struct {
	ProductID  string  `json:"product_id" binding:"required"`
	OfferPrice float64 `json:"offer_price" binding:"required,gt=0"`
}

func (s *Server) listOffers(c *gin.Context) {
	var offers []models.Offer
	if err := s.db.Order("created_at desc").Find(&offers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list offers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (s *Server) createOffer(c *gin.Context) {
	session, _ := GetSession(c)

	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := s.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	offer := &models.Offer{
		ProductID:   req.ProductID,
		OfferPrice:  req.OfferPrice,
		VendorEmail: session.Email,
		Status:      models.StatusPending,
	}
	if err := s.db.Create(offer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create offer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create offer"})
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// CreateAdvertisementRequest represents a vendor's advertisement submission
type CreateAdvertisementRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (s *Server) listAdvertisements(c *gin.Context) {
	var ads []models.Advertisement
	if err := s.db.Order("created_at desc").Find(&ads).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list advertisements")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, ads)
}

func (s *Server) createAdvertisement(c *gin.Context) {
	session, _ := GetSession(c)

	var req CreateAdvertisementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ad := &models.Advertisement{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		VendorEmail: session.Email,
		Status:      models.StatusPending,
	}
	if err := s.db.Create(ad).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create advertisement")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create advertisement"})
		return
	}

	c.JSON(http.StatusCreated, ad)
}

// CreateReviewRequest represents a review submission
type CreateReviewRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

func (s *Server) listReviews(c *gin.Context) {
	query := s.db.Order("created_at desc")
	if productID := c.Query("product"); productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (s *Server) createReview(c *gin.Context) {
	session, _ := GetSession(c)

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review := &models.Review{
		ProductID: req.ProductID,
		UserEmail: session.Email,
		UserName:  session.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.db.Create(review).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// WatchItemResponse is a watchlist entry joined with its product's live price
type WatchItemResponse struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ItemName     string  `json:"item_name"`
	MarketName   string  `json:"market_name"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// AddWatchItemRequest puts a product on the caller's watchlist
type AddWatchItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (s *Server) listWatchlist(c *gin.Context) {
	session, _ := GetSession(c)

	var items []models.WatchItem
	if err := s.db.Where("user_email = ?", session.Email).Find(&items).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]WatchItemResponse, 0, len(items))
	for _, item := range items {
		var product models.Product
		if err := s.db.Where("id = ?", item.ProductID).First(&product).Error; err != nil {
			// Product removed since it was watched; skip the entry
			continue
		}
		resp = append(resp, WatchItemResponse{
			ID:           item.ID,
			ProductID:    product.ID,
			ItemName:     product.ItemName,
			MarketName:   product.MarketName,
			PricePerUnit: product.PricePerUnit,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) addWatchItem(c *gin.Context) {
	session, _ := GetSession(c)

	var req AddWatchItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := s.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var count int64
	s.db.Model(&models.WatchItem{}).
		Where("user_email = ? AND product_id = ?", session.Email, req.ProductID).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Product already on watchlist"})
		return
	}

	item := &models.WatchItem{
		ProductID: req.ProductID,
		UserEmail: session.Email,
	}
	if err := s.db.Create(item).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to add watch item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add watch item"})
		return
	}

	c.JSON(http.StatusCreated, WatchItemResponse{
		ID:           item.ID,
		ProductID:    product.ID,
		ItemName:     product.ItemName,
		MarketName:   product.MarketName,
		PricePerUnit: product.PricePerUnit,
	})
}

func (s *Server) removeWatchItem(c *gin.Context) {
	session, _ := GetSession(c)

	result := s.db.Where("id = ? AND user_email = ?", c.Param("id"), session.Email).
		Delete(&models.WatchItem{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("Failed to remove watch item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove watch item"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watch item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CreatePaymentIntentRequest opens a payment with the (faked) processor
type CreatePaymentIntentRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// RecordPaymentRequest stores a confirmed payment
type RecordPaymentRequest struct {
	ProductID     string  `json:"product_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	TransactionID string  `json:"transaction_id" binding:"required"`
}

func (s *Server) createPaymentIntent(c *gin.Context) {
	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Shaped like a processor client secret; carries no meaning beyond the stub
	idBytes := make([]byte, 8)
	secretBytes := make([]byte, 12)
	if _, err := rand.Read(idBytes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if _, err := rand.Read(secretBytes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": "pi_" + hex.EncodeToString(idBytes) + "_secret_" + hex.EncodeToString(secretBytes),
	})
}

func (s *Server) listPayments(c *gin.Context) {
	session, _ := GetSession(c)

	var payments []models.Payment
	if err := s.db.Where("user_email = ?", session.Email).Order("created_at desc").Find(&payments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (s *Server) recordPayment(c *gin.Context) {
	session, _ := GetSession(c)

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment := &models.Payment{
		ProductID:     req.ProductID,
		UserEmail:     session.Email,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	}
	if err := s.db.Create(payment).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to record payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	c.JSON(http.StatusCreated, payment)
}
