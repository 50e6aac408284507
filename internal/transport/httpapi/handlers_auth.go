package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/rms/internal/service/account"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r registerRequest) input() account.RegisterInput {
	return account.RegisterInput{Name: r.Name, Email: r.Email, Password: r.Password, Role: r.Role}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	user, err := h.Accounts.Register(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toUserDTO(user))
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	session, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toSessionDTO(session))
}

func (h *handler) me(c *gin.Context) {
	user, err := h.Accounts.Me(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toUserDTO(user))
}

func (h *handler) listUsers(c *gin.Context) {
	users, err := h.Accounts.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	result := make([]userDTO, 0, len(users))
	for _, u := range users {
		result = append(result, toUserDTO(u))
	}
	respondOK(c, result)
}

func (h *handler) createUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	user, err := h.Accounts.CreateUser(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toUserDTO(user))
}

func (h *handler) deleteUser(c *gin.Context) {
	if err := h.Accounts.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}
