package domain

import "time"

// User represents an authenticated account in the system.
// Lists holds the IDs of every list the user owns; the reverse side of
// each reference lives in List.OwnerID and the two are kept consistent
// by the store.
type User struct {
	Syncable
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	IsRoot       bool      `json:"is_root"`
	Lists        []string  `json:"lists"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// DisplayName returns the best available name for the user,
// falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// OwnsList reports whether the given list ID appears in the user's list set.
func (u *User) OwnsList(listID string) bool {
	for _, id := range u.Lists {
		if id == listID {
			return true
		}
	}
	return false
}

// Session represents an active user session with a refresh token.
// Each device gets its own session so users can see what's connected.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`

	// Device information reported by the client at login.
	DeviceType      string `json:"device_type"`            // mobile, tablet, desktop, web
	Platform        string `json:"platform"`               // iOS, Android, Windows, macOS, Linux, Web
	PlatformVersion string `json:"platform_version"`       // 17.2, 14.0, 11, etc.
	ClientName      string `json:"client_name"`            // Taskbox Mobile, Taskbox Web
	ClientVersion   string `json:"client_version"`         // 1.0.0
	DeviceName      string `json:"device_name,omitempty"`  // user-set, optional
	DeviceModel     string `json:"device_model,omitempty"` // iPhone 15 Pro, Pixel 8
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// DisplayName returns a human-readable description of the device.
func (s *Session) DisplayName() string {
	if s.DeviceName != "" {
		return s.DeviceName
	}

	if s.DeviceModel != "" {
		if s.PlatformVersion != "" {
			return s.DeviceModel + " - " + s.Platform + " " + s.PlatformVersion
		}
		return s.DeviceModel
	}

	if s.Platform != "" {
		if s.PlatformVersion != "" {
			return s.Platform + " " + s.PlatformVersion
		}
		return s.Platform
	}

	if s.ClientName != "" {
		if s.ClientVersion != "" {
			return s.ClientName + " " + s.ClientVersion
		}
		return s.ClientName
	}

	return "Unknown Device"
}
