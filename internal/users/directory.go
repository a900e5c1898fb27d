package users

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/clipzipship/czs-admin/internal/hash"
	"github.com/clipzipship/czs-admin/internal/models"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

// Directory manages the users relation. Usernames are unique
// case-insensitively; password hashes never leave this package.
type Directory struct {
	DB *gorm.DB
}

// PatchOp is a single operation of a PATCH request body. Only the
// "/username" path is honored, any other operation is ignored.
type PatchOp struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// UserInfo is the projection returned by List.
type UserInfo struct {
	Username string `json:"username"`
	Role     int    `json:"role"`
}

func (d *Directory) List() ([]UserInfo, error) {
	var users []models.User
	if err := d.DB.Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("cannot query users: %w", err)
	}

	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, UserInfo{Username: u.Username, Role: u.Role})
	}
	return infos, nil
}

func (d *Directory) Create(username, password string) error {
	if username == "" || password == "" {
		return usererr.New(http.StatusBadRequest,
			"Username or password undefined.",
			"Aucun nom d'utilisateur ou mot de passe défini.")
	}
	username = strings.TrimSpace(username)

	existing, err := d.byUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return usererr.New(http.StatusInternalServerError,
			"This username already exists.",
			"Ce nom d'utilisateur existe déjà.")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("cannot hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         models.RoleLevelUser,
	}
	if err := d.DB.Create(&user).Error; err != nil {
		return fmt.Errorf("cannot create user: %w", err)
	}
	return nil
}

func (d *Directory) Update(username string, ops []PatchOp) error {
	if username == "" || ops == nil {
		return usererr.New(http.StatusBadRequest,
			"Username undefined or invalid PATCH operations series.",
			"Aucun nom d'utilisateur défini ou série d'opérations PATCH invalide.")
	}

	user, err := d.byUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound()
	}

	for _, op := range ops {
		if op.Path == "/username" {
			if err := d.DB.Model(&models.User{}).
				Where("username = ?", username).
				Update("username", op.Value).Error; err != nil {
				return fmt.Errorf("cannot update user: %w", err)
			}
		}
	}
	return nil
}

func (d *Directory) Delete(username string) error {
	if username == "" {
		return usererr.New(http.StatusBadRequest,
			"Username undefined.",
			"Aucun nom d'utilisateur défini.")
	}
	username = strings.TrimSpace(username)

	user, err := d.byUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound()
	}

	if err := d.DB.Delete(&models.User{}, user.ID).Error; err != nil {
		return fmt.Errorf("cannot delete user: %w", err)
	}
	return nil
}

func (d *Directory) byUsername(username string) (*models.User, error) {
	var user models.User
	err := d.DB.Where("UPPER(username) = ?", strings.ToUpper(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot query user: %w", err)
	}
	return &user, nil
}

func notFound() *usererr.Error {
	return usererr.New(http.StatusNotFound,
		"Username couldn't be found.",
		"Ce nom d'utilisateur n'existe pas.")
}
