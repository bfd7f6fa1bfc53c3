package user

import "time"

// SetEmail returns an UpdateSetter that sets the user's email.
func SetEmail(email string) UpdateSetter {
	return func(u *User) error {
		u.Email = email
		return u.Validate()
	}
}

// SetUsername returns an UpdateSetter that sets the user's username.
func SetUsername(username string) UpdateSetter {
	return func(u *User) error {
		if username == "" {
			return ErrInvalidUsername
		}
		u.Username = username
		return nil
	}
}

// SetPassword returns an UpdateSetter that sets the user's password.
func SetPassword(password string) UpdateSetter {
	return func(u *User) error {
		return u.SetPassword(password)
	}
}

// SetActive returns an UpdateSetter that sets the user's active status.
func SetActive(active bool) UpdateSetter {
	return func(u *User) error {
		u.IsActive = active
		return nil
	}
}

// SetLastLogin returns an UpdateSetter that stamps the current time as last login.
func SetLastLogin() UpdateSetter {
	return func(u *User) error {
		now := time.Now()
		u.LastLoginAt = &now
		return nil
	}
}
