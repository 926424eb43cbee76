package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"farehub/internal/offer"
	"farehub/internal/supplier"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/offers/search", h.SearchHandler)
	router.POST("/v1/offers/filter", h.FilterHandler)
	router.GET("/v1/offers/:supplier/:reference", h.OfferDetailsHandler)
	router.GET("/v1/suppliers", h.SuppliersHandler)
}

func (h *Handler) SearchHandler(c *gin.Context) {
	var req offer.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid JSON body",
			"code":  ErrorCodeValidation,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  ErrorCodeValidation,
		})
		return
	}

	response, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// FilterRequest re-runs a search (served from cache when warm) and narrows
// the result set with the caller's filters.
type FilterRequest struct {
	offer.SearchRequest
	Filters *Filters `json:"filters,omitempty"`
}

func (h *Handler) FilterHandler(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid JSON body",
			"code":  ErrorCodeValidation,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  ErrorCodeValidation,
		})
		return
	}

	response, err := h.service.Search(c.Request.Context(), req.SearchRequest)
	if err != nil {
		sendError(c, err)
		return
	}

	if req.Filters != nil {
		response.Offers = FilterResults(response.Offers, *req.Filters)
		response.Metadata.TotalResults = len(response.Offers)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) OfferDetailsHandler(c *gin.Context) {
	code := c.Param("supplier")
	reference := c.Param("reference")

	detail, err := h.service.OfferDetails(c.Request.Context(), code, reference)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) SuppliersHandler(c *gin.Context) {
	codes, err := h.service.ActiveSupplierCodes(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suppliers": codes})
}

func sendError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	var udErr *supplier.UnsupportedDriverError
	if errors.As(err, &udErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": udErr.Error(),
			"code":  ErrorCodeUnsupportedSupplier,
		})
		return
	}

	if errors.Is(err, supplier.ErrOfferNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Offer not found",
			"code":  ErrorCodeOfferNotFound,
		})
		return
	}

	var supErr *supplier.SupplierError
	if errors.As(err, &supErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": supErr.Error(),
			"code":  ErrorCodeSupplierFailure,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Server Error",
		"code":    ErrorCodeInternalFailure,
		"details": err.Error(),
	})
}
