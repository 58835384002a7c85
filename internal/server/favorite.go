package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) SetFavorite(c *gin.Context) {
	if err := s.favoriteSvc.Set(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UnsetFavorite(c *gin.Context) {
	if err := s.favoriteSvc.Unset(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListFavorites(c *gin.Context) {
	favorites, err := s.favoriteSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}
