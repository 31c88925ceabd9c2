package server

import (
	_ "embed"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// IndexHTMLPath overrides the embedded page when it exists, handy while editing it
const IndexHTMLPath = "./ui/index.html"

//go:embed ui/index.html
var IndexHTML []byte

func (s *Server) index(c *gin.Context) {
	if stat, err := os.Stat(IndexHTMLPath); err == nil && !stat.IsDir() {
		c.File(IndexHTMLPath)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", IndexHTML)
}
