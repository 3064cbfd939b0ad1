package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"geoquiz/middleware"
	"geoquiz/services"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindDataUnavailable:
		return http.StatusConflict
	case services.KindConflict, services.KindInvalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Engine errors keep their message and
// reason; anything else is reported as an internal error.
func respondError(c *gin.Context, err error) {
	var ge *services.GameError
	if errors.As(err, &ge) {
		c.JSON(statusFor(ge.Kind), gin.H{"error": ge.Message, "reason": ge.Reason})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func currentUser(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return userID.(uint), true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return 0, 0, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size"})
		return 0, 0, false
	}
	return page, size, true
}
