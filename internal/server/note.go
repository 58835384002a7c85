package server

import (
	"net/http"

	notedomain "github.com/dealgrid/auctionlens/internal/note/domain"
	"github.com/gin-gonic/gin"
)

type noteBody struct {
	Body string `json:"body"`
}

func (s *Server) CreateNote(c *gin.Context) {
	var body noteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.noteSvc.Create(c.Request.Context(), notedomain.CreateRequest{
		PropertyID: c.Param("id"),
		Body:       body.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateNote(c *gin.Context) {
	var body noteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.noteSvc.Update(c.Request.Context(), notedomain.UpdateRequest{
		ID:   c.Param("id"),
		Body: body.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteNote(c *gin.Context) {
	if err := s.noteSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListNotes(c *gin.Context) {
	notes, err := s.noteSvc.ListByProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}
