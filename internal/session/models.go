// Package session holds the authenticated client state: who is logged in,
// with which token, and which modules the tenant has granted. The state is
// durable across restarts via a pluggable Storage backend.
package session

// User is the authenticated user's profile as returned by the login endpoint.
type User struct {
	ID            int64   `json:"id_user"`
	Email         string  `json:"email"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Phone         string  `json:"phone"`
	Status        int     `json:"status"`
	AllPermission int     `json:"all_permission"`
	Structures    []int64 `json:"structures"`
	Roles         []int64 `json:"roles"`
}

// ModuleConfig carries optional display hints for a module entry.
type ModuleConfig struct {
	Key      string `json:"key,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Route    string `json:"route,omitempty"`
	Position string `json:"position,omitempty"`
}

// Module is a configurable feature/menu entry available to the user.
type Module struct {
	ID             int64        `json:"id_module"`
	Name           string       `json:"module"`
	Path           string       `json:"path"`
	Config         ModuleConfig `json:"setting_module_config"`
	Order          int          `json:"order"`
	IsRender       int          `json:"is_render"`
	IsRenderMobile int          `json:"is_render_mobile"`
	Operations     []int        `json:"operations,omitempty"`
}

// APIVersion reports the backend API and OAuth layer versions.
type APIVersion struct {
	API   string `json:"api"`
	OAuth string `json:"oauth"`
}

// Session is the full authenticated state for one tenant-scoped login.
// The zero value is the unauthenticated session.
type Session struct {
	Token      string     `json:"token"`
	User       User       `json:"user"`
	Modules    []Module   `json:"modules"`
	ClientID   int64      `json:"id_client"`
	ClientUID  string     `json:"uid_client"`
	InstanceID int64      `json:"id_instance"`
	Version    APIVersion `json:"version"`
}

// IsAuthenticated reports whether the session carries a token.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// UserPatch is a partial user update. Nil fields are left untouched by
// Store.UpdateUser.
type UserPatch struct {
	Email         *string
	FirstName     *string
	LastName      *string
	Phone         *string
	Status        *int
	AllPermission *int
	Structures    []int64
	Roles         []int64
}
