package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecomstack/ecommerce-api/internal/middleware"
	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/repository"
)

// AddressHandler implements the address book. Every operation is scoped to
// the authenticated user; addresses of other users are indistinguishable
// from missing ones.
type AddressHandler struct {
	Addresses *repository.AddressRepo
}

func NewAddressHandler(a *repository.AddressRepo) *AddressHandler {
	return &AddressHandler{Addresses: a}
}

type addressReq struct {
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

type addressResp struct {
	ID         uint64 `json:"id"`
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

func toAddressResp(a model.Address) addressResp {
	return addressResp{
		ID: a.ID, Label: a.Label, Line1: a.Line1, Line2: a.Line2,
		City: a.City, PostalCode: a.PostalCode, Country: a.Country, IsDefault: a.IsDefault,
	}
}

func (r addressReq) validate() string {
	if strings.TrimSpace(r.Line1) == "" || strings.TrimSpace(r.City) == "" {
		return "line1 and city required"
	}
	if len(strings.TrimSpace(r.Country)) != 2 {
		return "country must be a two-letter code"
	}
	return ""
}

// Create handles POST /v1/addresses.
func (h *AddressHandler) Create(c echo.Context) error {
	var req addressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := middleware.UserID(c)
	id, err := h.Addresses.Create(ctx, model.Address{
		UserID: uid, Label: strings.TrimSpace(req.Label),
		Line1: strings.TrimSpace(req.Line1), Line2: strings.TrimSpace(req.Line2),
		City: strings.TrimSpace(req.City), PostalCode: strings.TrimSpace(req.PostalCode),
		Country: strings.ToUpper(strings.TrimSpace(req.Country)), IsDefault: req.IsDefault,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create address failed"})
	}
	a, err := h.Addresses.GetByID(ctx, uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load address failed"})
	}
	return c.JSON(http.StatusCreated, toAddressResp(a))
}

// List handles GET /v1/addresses.
func (h *AddressHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Addresses.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]addressResp, 0, len(items))
	for _, a := range items {
		out = append(out, toAddressResp(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// Update handles PUT /v1/addresses/:id.
func (h *AddressHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address id"})
	}
	var req addressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := middleware.UserID(c)
	err = h.Addresses.Update(ctx, model.Address{
		ID: id, UserID: uid, Label: strings.TrimSpace(req.Label),
		Line1: strings.TrimSpace(req.Line1), Line2: strings.TrimSpace(req.Line2),
		City: strings.TrimSpace(req.City), PostalCode: strings.TrimSpace(req.PostalCode),
		Country: strings.ToUpper(strings.TrimSpace(req.Country)), IsDefault: req.IsDefault,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "address not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update address failed"})
	}
	a, err := h.Addresses.GetByID(ctx, uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load address failed"})
	}
	return c.JSON(http.StatusOK, toAddressResp(a))
}

// Delete handles DELETE /v1/addresses/:id.
func (h *AddressHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Addresses.Delete(ctx, middleware.UserID(c), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "address not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete address failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
