package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/stashbook-finance/stashbook/api/model"
)

func (a Api) CreateUser(c *gin.Context) {
	var newUser model2.CreateUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := newUser.ValidateCreateUser(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.stashbook.CreateUser(c.Request.Context(), newUser.ToUser())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetUser(c *gin.Context) {
	id := c.Param("id")

	user, err := a.stashbook.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
