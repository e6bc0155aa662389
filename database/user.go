package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/stashbook-finance/stashbook/internal/apierror"
	"github.com/stashbook-finance/stashbook/model"
)

// CreateUser inserts a new User.
func (d Datasource) CreateUser(user model.User) (model.User, error) {
	metaDataJSON, err := json.Marshal(user.MetaData)
	if err != nil {
		return user, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}
	if user.UserID == "" {
		user.UserID = model.GenerateUUIDWithSuffix("usr")
	}
	user.CreatedAt = time.Now()

	_, err = d.Conn.Exec(`
		INSERT INTO stashbook.users (user_id, first_name, last_name, email, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.UserID, user.FirstName, user.LastName, user.Email, user.CreatedAt, metaDataJSON)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "unique_violation" {
			return model.User{}, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("User with ID '%s' already exists", user.UserID), err)
		}
		return model.User{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create user", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (d Datasource) GetUserByID(id string) (*model.User, error) {
	user := &model.User{}
	var metaDataJSON []byte

	row := d.Conn.QueryRow(`
		SELECT user_id, first_name, last_name, email, created_at, meta_data
		FROM stashbook.users WHERE user_id = $1
	`, id)
	err := row.Scan(&user.UserID, &user.FirstName, &user.LastName, &user.Email, &user.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("User with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve user", err)
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &user.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal user metadata", err)
		}
	}
	return user, nil
}
