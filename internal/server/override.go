package server

import (
	"net/http"
	"strings"

	overridedomain "github.com/dealgrid/auctionlens/internal/override/domain"
	"github.com/dealgrid/auctionlens/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type saveOverrideBody struct {
	Kind   string   `json:"kind"`
	Amount *float64 `json:"amount"`
	Date   *string  `json:"date"`
	Notes  *string  `json:"notes"`
}

func (s *Server) GetOverride(c *gin.Context) {
	resp, err := s.overrideSvc.Get(
		c.Request.Context(),
		c.Param("id"),
		overridedomain.Field(c.Param("field")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusOK, gin.H{"override": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"override": resp})
}

func (s *Server) SaveOverride(c *gin.Context) {
	var body saveOverrideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.overrideSvc.Save(c.Request.Context(), overridedomain.SaveRequest{
		PropertyID: c.Param("id"),
		Field:      overridedomain.Field(c.Param("field")),
		Kind:       body.Kind,
		Amount:     body.Amount,
		Date:       body.Date,
		Notes:      body.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) RevertOverride(c *gin.Context) {
	err := s.overrideSvc.Revert(
		c.Request.Context(),
		c.Param("id"),
		overridedomain.Field(c.Param("field")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type overrideHistoryQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func (s *Server) ListOverrideHistory(c *gin.Context) {
	var query overrideHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.overrideSvc.History(c.Request.Context(), overridedomain.HistoryRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		PropertyID: c.Param("id"),
		Field:      overridedomain.Field(c.Param("field")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
