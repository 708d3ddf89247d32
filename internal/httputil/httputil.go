package httputil

import "github.com/gin-gonic/gin"

// RespondError отдаёт ошибку в едином формате {"error": ...} и обрывает
// цепочку обработчиков через AbortWithStatusJSON.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
