package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim/service"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/httpx"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/storage"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

// RegisterClaimRoutes mounts the claim API under /claims. authn must set the
// principal (middleware.AuthMiddleware); roles backs the admin checks.
func RegisterClaimRoutes(r gin.IRouter, svc *service.Service, authn gin.HandlerFunc, roles middleware.RoleLookup) {
	g := r.Group("/claims", authn)
	adminOnly := middleware.RequireRole(roles, string(users.RoleAdmin))
	withRole := middleware.LoadRole(roles)

	g.POST("", withRole, func(c *gin.Context) {
		var req struct {
			EmployeeID  string   `json:"employeeId"`
			Name        string   `json:"name"`
			Category    string   `json:"category"`
			Amount      *float64 `json:"amount"`
			Date        string   `json:"date"`
			Description string   `json:"description"`
			ProofURL    string   `json:"proofUrl"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Message(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		a := actor(c)
		if req.EmployeeID == "" {
			req.EmployeeID = a.UID
		}
		if req.EmployeeID != a.UID && !a.Admin {
			httpx.Error(c, apperr.Forbidden("Cannot submit for another employee"))
			return
		}
		id, err := svc.Submit(c.Request.Context(), service.SubmitInput{
			EmployeeID:  req.EmployeeID,
			Name:        req.Name,
			Category:    req.Category,
			Amount:      req.Amount,
			Date:        req.Date,
			Description: req.Description,
			ProofURL:    req.ProofURL,
		})
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Claim submitted", "claimId": id})
	})

	g.GET("", adminOnly, func(c *gin.Context) {
		list, err := svc.ListAll(c.Request.Context(), claim.Status(c.Query("status")))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"claims": list})
	})

	g.GET("/my/:employeeId", withRole, func(c *gin.Context) {
		list, err := svc.ListMine(c.Request.Context(), actor(c), c.Param("employeeId"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.GET("/:claimId", withRole, func(c *gin.Context) {
		cl, err := svc.Get(c.Request.Context(), actor(c), c.Param("claimId"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cl)
	})

	g.PATCH("/:claimId", func(c *gin.Context) {
		var req struct {
			Name        *string  `json:"name"`
			Category    *string  `json:"category"`
			Amount      *float64 `json:"amount"`
			Date        *string  `json:"date"`
			Description *string  `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Message(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		err := svc.Edit(c.Request.Context(), actor(c), c.Param("claimId"), service.EditInput{
			Name:        req.Name,
			Category:    req.Category,
			Amount:      req.Amount,
			Date:        req.Date,
			Description: req.Description,
		})
		if err != nil {
			httpx.Error(c, err)
			return
		}
		httpx.Message(c, http.StatusOK, "Claim updated")
	})

	g.PATCH("/:claimId/proof", func(c *gin.Context) {
		var req struct {
			ProofURL string `json:"proofUrl"`
			Filename string `json:"filename"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Message(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := svc.AttachProof(c.Request.Context(), actor(c), c.Param("claimId"), req.ProofURL, req.Filename); err != nil {
			httpx.Error(c, err)
			return
		}
		httpx.Message(c, http.StatusOK, "Proof attached")
	})

	g.POST("/:claimId/receipt", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			httpx.Message(c, http.StatusBadRequest, "file is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			httpx.Error(c, apperr.Upload(err))
			return
		}
		defer f.Close()

		url, err := svc.UploadReceipt(c.Request.Context(), actor(c), c.Param("claimId"), storage.File{
			Reader:      f,
			Size:        fh.Size,
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Receipt uploaded", "proofUrl": url})
	})

	g.PATCH("/:claimId/decision", adminOnly, func(c *gin.Context) {
		var req struct {
			Status  claim.Status `json:"status"`
			Comment string       `json:"comment"`
			AdminID string       `json:"adminId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Message(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		a := actor(c)
		if req.AdminID != "" && req.AdminID != a.UID {
			httpx.Error(c, apperr.Forbidden("adminId does not match the authenticated user"))
			return
		}
		if err := svc.Decide(c.Request.Context(), c.Param("claimId"), req.Status, req.Comment, a.UID); err != nil {
			httpx.Error(c, err)
			return
		}
		httpx.Message(c, http.StatusOK, "Claim "+string(req.Status))
	})

	g.DELETE("/:claimId", func(c *gin.Context) {
		if err := svc.Withdraw(c.Request.Context(), actor(c), c.Param("claimId")); err != nil {
			httpx.Error(c, err)
			return
		}
		httpx.Message(c, http.StatusOK, "Claim withdrawn")
	})
}

// actor builds the caller from the principal and, when loaded, its role.
func actor(c *gin.Context) claim.Actor {
	p, _ := middleware.PrincipalFrom(c)
	role, _ := middleware.RoleFrom(c)
	return claim.Actor{UID: p.UID, Admin: role == string(users.RoleAdmin)}
}
