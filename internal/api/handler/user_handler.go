package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agileflow/user-service/internal/core/domain"
	"github.com/agileflow/user-service/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type createUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Gender    *string `json:"gender" validate:"omitnil,oneof=male female other"`
	Password  string  `json:"password" validate:"required,min=8,max=72,password"`
}

type replaceUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Gender    *string `json:"gender" validate:"omitnil,oneof=male female other"`
}

type patchUserRequest struct {
	Email     *string `json:"email" validate:"omitnil,email"`
	FirstName *string `json:"firstName" validate:"omitnil,min=1"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1"`
	Gender    *string `json:"gender" validate:"omitnil,oneof=male female other"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,password"`
}

type userIDParam struct {
	ID string `json:"id" validate:"required,mongodb"`
}

// Create registers a new account. Public.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), ports.CreateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    toGender(req.Gender),
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/users/"+user.ID)
	return c.JSON(http.StatusCreated, user)
}

// List returns every account.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one account by id.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Replace overwrites the profile of the account identified by id.
//
// @Router       /users/{id} [put]
func (h *UserHandler) Replace(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return h.replace(c, id)
}

// Update partially updates the account identified by id.
//
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return h.patch(c, id)
}

// Delete removes the account identified by id. Admin only.
//
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.userService.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMe returns the caller's own account.
//
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.Request().Context(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ReplaceMe overwrites the caller's own profile.
//
// @Router       /users/me [put]
func (h *UserHandler) ReplaceMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return h.replace(c, identity.UserID)
}

// UpdateMe partially updates the caller's own profile.
//
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return h.patch(c, identity.UserID)
}

// DeleteMe removes the caller's own account.
//
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.userService.Delete(c.Request().Context(), identity.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePassword changes the caller's password after checking the current one.
//
// @Router       /users/me/password [put]
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.userService.UpdatePassword(c.Request().Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) replace(c echo.Context, id string) error {
	var req replaceUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.userService.Update(c.Request().Context(), id, ports.UserPatch{
		Email:     &req.Email,
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		Gender:    toGender(req.Gender),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) patch(c echo.Context, id string) error {
	var req patchUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.userService.Update(c.Request().Context(), id, ports.UserPatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    toGender(req.Gender),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

func pathID(c echo.Context) (string, error) {
	p := userIDParam{ID: c.Param("id")}
	if err := c.Validate(&p); err != nil {
		return "", err
	}
	return p.ID, nil
}

func toGender(s *string) *domain.Gender {
	if s == nil {
		return nil
	}
	g := domain.Gender(*s)
	return &g
}
