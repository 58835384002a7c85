package server

import (
	"net/http"
	"strings"

	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type listPropertiesQuery struct {
	PageToken     string `form:"page_token"`
	PageSize      int    `form:"page_size"`
	County        string `form:"county"`
	Status        string `form:"status"`
	AuctionAfter  string `form:"auction_after"`
	AuctionBefore string `form:"auction_before"`
	Search        string `form:"q"`
	SpreadBand    string `form:"spread_band"`
	SortBy        string `form:"sort_by"`
	OrderBy       string `form:"order_by"`
}

func (s *Server) ListProperties(c *gin.Context) {
	var query listPropertiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	auctionAfter, err := parseOptionalTime(query.AuctionAfter, false)
	if err != nil {
		AbortWithError(c, newValidationError("auction_after", "invalid_auction_after", "invalid auction_after"))
		return
	}
	auctionBefore, err := parseOptionalTime(query.AuctionBefore, true)
	if err != nil {
		AbortWithError(c, newValidationError("auction_before", "invalid_auction_before", "invalid auction_before"))
		return
	}

	resp, err := s.propertySvc.List(c.Request.Context(), propertydomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		County:        strings.TrimSpace(query.County),
		Status:        strings.TrimSpace(query.Status),
		AuctionAfter:  auctionAfter,
		AuctionBefore: auctionBefore,
		Search:        strings.TrimSpace(query.Search),
		SpreadBand:    strings.TrimSpace(query.SpreadBand),
		SortBy:        strings.TrimSpace(query.SortBy),
		OrderBy:       strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetProperty(c *gin.Context) {
	row, err := s.propertySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) ImportSnapshots(c *gin.Context) {
	var req propertydomain.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.propertySvc.Import(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
