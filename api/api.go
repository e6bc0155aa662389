/*
Copyright 2025 Stashbook Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stashbook-finance/stashbook"
	"github.com/stashbook-finance/stashbook/api/middleware"
	"github.com/stashbook-finance/stashbook/config"
)

type Api struct {
	stashbook *stashbook.Stashbook
	router    *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/users", a.CreateUser)
	router.GET("/users/:id", a.GetUser)

	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts", a.GetAllAccounts)
	router.GET("/accounts/closed", a.GetClosedAccounts)
	router.GET("/accounts/:id", a.GetAccount)
	router.PATCH("/accounts/:id", a.UpdateAccount)
	router.DELETE("/accounts/:id", a.DeleteAccount)
	router.PATCH("/accounts/:id/close", a.CloseAccount)
	router.PATCH("/accounts/:id/restore", a.RestoreAccount)
	router.GET("/accounts/:id/transactions", a.GetTransactionsByAccount)

	router.POST("/transactions", a.RecordTransaction)
	router.GET("/transactions", a.GetAllTransactions)
	router.GET("/transactions/:id", a.GetTransaction)
	router.DELETE("/transactions/:id", a.DeleteTransaction)

	router.POST("/reconciliation", a.RunReconciliation)

	return a.router
}

func NewAPI(s *stashbook.Stashbook) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.UserContextMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{stashbook: s, router: r}
}

// userID returns the acting user set by the user context middleware.
func userID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// maxPaginationValue caps limit/offset so oversized query values fall back to
// the defaults instead of reaching the database.
const maxPaginationValue = 1000000

// pagination reads limit/offset query parameters with sane fallbacks.
func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if v, ok := parseIntParam(c.Query("limit")); ok {
		limit = v
	}
	if v, ok := parseIntParam(c.Query("offset")); ok {
		offset = v
	}
	return limit, offset
}

func parseIntParam(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxPaginationValue {
		return 0, false
	}
	return n, true
}

// RunReconciliation re-derives the last activity date of every account.
func (a Api) RunReconciliation(c *gin.Context) {
	reconciled, err := a.stashbook.ReconcileLastTxDates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciled": reconciled})
}
