package server

import (
	"net/http"

	tagdomain "github.com/dealgrid/auctionlens/internal/tag/domain"
	"github.com/gin-gonic/gin"
)

type addTagBody struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

func (s *Server) AddTag(c *gin.Context) {
	var body addTagBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tagSvc.Add(c.Request.Context(), tagdomain.AddRequest{
		PropertyID: c.Param("id"),
		Label:      body.Label,
		Color:      body.Color,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) RemoveTag(c *gin.Context) {
	if err := s.tagSvc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListTags(c *gin.Context) {
	tags, err := s.tagSvc.ListByProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) ListTagLabels(c *gin.Context) {
	labels, err := s.tagSvc.Labels(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}
